// Package google mirrors payment requests into a Google Sheets ledger the
// finance team already lives in. SQLite stays canonical; every row here can
// be rebuilt from it.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
	googleauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"github.com/Jonatasvm/pagamento-sub000/internal/core"
	ports "github.com/Jonatasvm/pagamento-sub000/internal/sheets"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var (
	_ ports.LedgerWriter  = (*Client)(nil)
	_ ports.LedgerRemover = (*Client)(nil)
)

// Options carries the OAuth material. JSON values win over file paths so a
// containerized deployment can inject credentials without a volume.
type Options struct {
	SpreadsheetID string
	SheetName     string
	ClientFile    string
	ClientJSON    string
	TokenFile     string
	TokenJSON     string
}

func New(ctx context.Context, opts Options) (*Client, error) {
	if opts.SpreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if opts.SheetName == "" {
		return nil, errors.New("missing sheet name")
	}

	clientJSON, err := readMaterial(opts.ClientJSON, opts.ClientFile)
	if err != nil {
		return nil, fmt.Errorf("oauth client: %w", err)
	}
	tokenJSON, err := readMaterial(opts.TokenJSON, opts.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("oauth token: %w", err)
	}

	cfg, err := googleauth.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}

	tok := &oauth2.Token{}
	if err := json.Unmarshal(tokenJSON, tok); err != nil {
		return nil, fmt.Errorf("parse oauth token: %w", err)
	}

	svc, err := gsheet.NewService(ctx, goption.WithHTTPClient(cfg.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: opts.SpreadsheetID,
		sheetName:     opts.SheetName,
	}, nil
}

func readMaterial(inline, file string) ([]byte, error) {
	switch {
	case strings.TrimSpace(inline) != "":
		return []byte(inline), nil
	case strings.TrimSpace(file) != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
		return b, nil
	default:
		return nil, errors.New("neither inline JSON nor file provided")
	}
}

// ledgerRow is the column layout of the mirror sheet (A through N).
func ledgerRow(r core.PaymentRequest) []any {
	vencimento := ""
	if len(r.Parcelas) > 0 {
		vencimento = r.Parcelas[0].DueDate.BR()
	}
	lancado := "NÃO"
	if r.Lancado {
		lancado = "SIM"
	}
	return []any{
		r.ID,
		r.DataLancamento.BR(),
		r.Obra,
		r.Referente,
		r.TitularNome,
		r.CpfCnpj,
		r.Valor.DecimalString(),
		string(r.FormaPagamento),
		r.ChavePix,
		len(r.Parcelas),
		vencimento,
		r.Categoria,
		lancado,
		r.Observacao,
	}
}

// Upsert writes the request's row, replacing an existing row with the same
// id when present.
func (c *Client) Upsert(ctx context.Context, r core.PaymentRequest) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	row, err := c.findRow(ctx, r.ID)
	if err != nil {
		return "", err
	}
	if row == 0 {
		resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.sheetName+"!A:A").Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("get sheet dimensions: %w", err)
		}
		row = len(resp.Values) + 1
	}

	rng := fmt.Sprintf("%s!A%d:N%d", c.sheetName, row, row)
	vr := &gsheet.ValueRange{Values: [][]any{ledgerRow(r)}}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("write row for request %d: %w", r.ID, err)
	}
	return rng, nil
}

// Remove clears the row holding the given request id. The row is blanked
// rather than deleted so references to rows below it stay stable.
func (c *Client) Remove(ctx context.Context, requestID int64) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	row, err := c.findRow(ctx, requestID)
	if err != nil {
		return err
	}
	if row == 0 {
		return nil
	}

	rng := fmt.Sprintf("%s!A%d:N%d", c.sheetName, row, row)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear row for request %d: %w", requestID, err)
	}
	return nil
}

// findRow returns the 1-based row holding the request id, or 0 when absent.
func (c *Client) findRow(ctx context.Context, requestID int64) (int, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.sheetName+"!A:A").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("scan id column: %w", err)
	}
	want := strconv.FormatInt(requestID, 10)
	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == want {
			return i + 1, nil
		}
	}
	return 0, nil
}
