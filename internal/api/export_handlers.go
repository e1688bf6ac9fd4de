package api

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"
	"github.com/rxtech-lab/swapit-router/internal/models"
	"github.com/rxtech-lab/swapit-router/internal/services"
	"github.com/rxtech-lab/swapit-router/internal/utils"
)

var exportHeader = []string{"Date", "Time", "Type", "Token In", "Amount In", "Token Out", "Amount Out", "Fee", "Log Hash"}

// exportedSwap is one history row with amounts in token units
type exportedSwap struct {
	Date      string          `json:"date"`
	Kind      models.SwapKind `json:"kind"`
	UserIndex uint64          `json:"user_index"`
	TokenIn   string          `json:"token_in"`
	AmountIn  string          `json:"amount_in"`
	TokenOut  string          `json:"token_out"`
	AmountOut string          `json:"amount_out"`
	Fee       string          `json:"fee"`
	LogHash   string          `json:"log_hash"`
	EventID   string          `json:"event_id"`

	timestamp time.Time
}

func (e exportedSwap) csvRow() []string {
	logHash := e.LogHash
	if logHash == "" {
		logHash = "N/A"
	}
	return []string{
		e.timestamp.Format("2006-01-02"),
		e.timestamp.Format("15:04:05"),
		string(e.Kind),
		e.TokenIn,
		e.AmountIn,
		e.TokenOut,
		e.AmountOut,
		e.Fee,
		logHash,
	}
}

// handleExportTransactions downloads the whole swap history of a user as CSV (default) or JSON
func (s *APIServer) handleExportTransactions(c *fiber.Ctx) error {
	user, err := userAddress(c)
	if err != nil {
		return writeError(c, err)
	}
	format := c.Query("format", "csv")
	if format != "csv" && format != "json" {
		return writeError(c, fmt.Errorf("%w: format must be csv or json", services.ErrInvalidRequest))
	}

	ctx := c.UserContext()
	rows, err := s.exportRows(ctx, user)
	if err != nil {
		return writeError(c, err)
	}

	now := time.Now().UTC()
	filename := fmt.Sprintf("swapit-transactions-%s.%s", now.Format("2006-01-02"), format)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))

	if format == "json" {
		return c.JSON(fiber.Map{
			"account":            user.Hex(),
			"export_date":        now.Format(time.RFC3339),
			"total_transactions": len(rows),
			"transactions":       rows,
		})
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return writeError(c, err)
	}
	for _, row := range rows {
		if err := w.Write(row.csvRow()); err != nil {
			return writeError(c, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	return c.Send(buf.Bytes())
}

// exportRows pages through the user's log and formats every record by its tokens' decimals
func (s *APIServer) exportRows(ctx context.Context, user common.Address) ([]exportedSwap, error) {
	total := s.svc.Router.GetUserTransactionCount(ctx, user)
	tokens := map[string]*models.Token{}
	lookup := func(address string) *models.Token {
		if token, ok := tokens[address]; ok {
			return token
		}
		token, err := s.svc.Tokens.GetByAddress(ctx, s.chainID(), common.HexToAddress(address))
		if err != nil {
			token = nil
		}
		tokens[address] = token
		return token
	}
	describe := func(address string, amount models.BigInt) (string, string) {
		token := lookup(address)
		if token == nil {
			return address, amount.Big().String()
		}
		return token.Symbol, utils.FormatUnits(amount.Big(), token.Decimals)
	}

	rows := make([]exportedSwap, 0, total)
	for start := uint64(0); start < total; start += maxPageSize {
		records, err := s.svc.Router.GetUserTransactions(ctx, user, start, maxPageSize)
		if err != nil {
			return nil, err
		}
		for _, record := range records {
			tokenIn, amountIn := describe(record.TokenIn, record.AmountIn)
			tokenOut, amountOut := describe(record.TokenOut, record.AmountOut)
			_, fee := describe(record.TokenIn, record.FeeAmount)
			rows = append(rows, exportedSwap{
				Date:      record.Timestamp.UTC().Format(time.RFC3339),
				Kind:      record.Kind,
				UserIndex: record.UserIndex,
				TokenIn:   tokenIn,
				AmountIn:  amountIn,
				TokenOut:  tokenOut,
				AmountOut: amountOut,
				Fee:       fee,
				LogHash:   record.LogHash,
				EventID:   record.EventID,
				timestamp: record.Timestamp.UTC(),
			})
		}
	}
	return rows, nil
}
