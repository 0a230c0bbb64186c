package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DealerRing/internal/event"
	"DealerRing/internal/state"
	"DealerRing/internal/testutil"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleLog() *event.Log {
	log := event.NewLog()
	log.Append(1, &event.DayStarted{Day: 1, LiveTickets: 4})
	log.Append(1, &event.TradeExecuted{
		Bucket:      "short",
		Side:        event.SideBuy,
		Price:       dec("1.03"),
		TicketID:    7,
		TraderID:    "b1",
		PassThrough: false,
	})
	log.Append(1, &event.IssuerSettled{
		IssuerID:    "iss",
		TicketCount: 2,
		Due:         dec("2"),
		Recovery:    dec("0.5"),
		Paid:        dec("1"),
		Defaulted:   true,
	})
	log.Append(1, &event.HolderPaid{
		IssuerID: "iss",
		Holder:   state.OwnerRef{Kind: state.OwnerTrader, ID: "t1"},
		Tickets:  2,
		Amount:   dec("1"),
	})
	return log
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleLog()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 5, "header plus one row per event")

	assert.Equal(t, "sequence", rows[0][0])
	assert.Equal(t, "type", rows[0][2])

	day := rows[1]
	assert.Equal(t, "0", day[0])
	assert.Equal(t, "DayStarted", day[2])
	assert.Equal(t, "live_tickets=4", day[20])

	trade := rows[2]
	assert.Equal(t, "TradeExecuted", trade[2])
	assert.Equal(t, "short", trade[3])
	assert.Equal(t, "Buy", trade[4])
	assert.Equal(t, "1.03", trade[5])
	assert.Equal(t, "7", trade[6])
	assert.Equal(t, "b1", trade[7])
	assert.Equal(t, "false", trade[8])

	settled := rows[3]
	assert.Equal(t, "IssuerSettled", settled[2])
	assert.Equal(t, "iss", settled[17])
	assert.Equal(t, "0.5", settled[18])
	assert.Equal(t, "1", settled[19])

	paid := rows[4]
	assert.Equal(t, "HolderPaid", paid[2])
	assert.Equal(t, "holder=Trader/t1 tickets=2", paid[20])
}

func TestWriteCSVGolden(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleLog()))
	testutil.AssertGolden(t, "events.csv", buf.Bytes())
}

func TestWriteCSVEmptyLog(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, event.NewLog()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
