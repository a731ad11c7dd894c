package core

import (
	"errors"
	"strings"
	"time"
)

// Payment methods accepted on a request form.
const (
	Pix      PaymentMethod = "PIX"
	Boleto   PaymentMethod = "BOLETO"
	Cheque   PaymentMethod = "CHEQUE"
	Dinheiro PaymentMethod = "DINHEIRO"
)

// MaxInstallments caps the length of a payment plan; the form offers at most
// 24 monthly installments.
const MaxInstallments = 24

type (
	PaymentMethod string

	// Date is a timezone-free calendar date. The underlying time.Time is
	// always UTC midnight so that formatting and month arithmetic can never
	// drift across a day boundary.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Installment is one slice of a boleto payment plan. Numbers are 1-based
	// and contiguous within a schedule.
	Installment struct {
		Number  int
		Amount  Money
		DueDate Date
	}

	// PaymentRequest is a single row of the payment ledger: everything the
	// requester filled in plus the fields the finance team manages afterwards.
	PaymentRequest struct {
		ID             int64
		Solicitante    int64 // requesting user id
		Obra           int64
		Conta          int64 // bank account, resolved from the obra
		Titular        int64 // supplier id, zero when typed free-form
		TitularNome    string
		CpfCnpj        string
		Referente      string
		Valor          Money
		FormaPagamento PaymentMethod
		ChavePix       string
		Parcelas       []Installment

		DataLancamento  Date
		DataCompetencia Date
		DataPagamento   Date

		Categoria  string
		QuemPaga   int64
		Lancado    bool
		LinkAnexo  string
		Observacao string
		Carimbo    time.Time
		Version    int64
	}
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrMissingObra       = errors.New("obra is required")
	ErrMissingReferente  = errors.New("referente is required")
	ErrMissingTitular    = errors.New("titular is required")
	ErrMissingDocumento  = errors.New("cpf/cnpj is required")
	ErrMissingChavePix   = errors.New("chave pix is required")
	ErrMissingVencimento = errors.New("first due date is required")
	ErrScheduleSum       = errors.New("installment amounts do not add up to the total")
	ErrTooManyParcelas   = errors.New("installment count exceeds the maximum")
	ErrInvalidMethod     = errors.New("invalid payment method")
)

// IsValid reports whether the method is one of the accepted forms.
func (m PaymentMethod) IsValid() bool {
	switch m {
	case Pix, Boleto, Cheque, Dinheiro:
		return true
	default:
		return false
	}
}

// NewDate builds a calendar date at UTC midnight.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO calendar date (YYYY-MM-DD). An empty string yields
// the zero Date without error, matching optional date fields on the form.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t.UTC()}, nil
}

// Today returns the current calendar date.
func Today() Date {
	y, m, d := time.Now().UTC().Date()
	return NewDate(y, int(m), d)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

// BR formats the date as DD/MM/YYYY for exports and spreadsheets.
func (d Date) BR() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("02/01/2006")
}

// AddMonths returns the date n whole calendar months later, clamped to the
// last valid day of the target month (Jan 31 + 1 month is Feb 28/29, never
// Mar 2). Arithmetic is done on calendar fields, not on time.Time, so the
// result is independent of timezone normalization.
func (d Date) AddMonths(n int) Date {
	year, month, day := d.Date()
	total := int(month) - 1 + n
	year += total / 12
	rem := total % 12
	if rem < 0 {
		rem += 12
		year--
	}
	target := time.Month(rem + 1)
	if last := daysInMonth(year, target); day > last {
		day = last
	}
	return NewDate(year, int(target), day)
}

func daysInMonth(year int, month time.Month) int {
	// Day zero of the following month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Equal compares calendar dates by value.
func (d Date) Equal(o Date) bool {
	return d.Time.Equal(o.Time)
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// ValidateSubmission applies the required-field policy before a request may
// be persisted or dispatched. The first failing rule wins; the schedule-sum
// rule has its own error so the UI can distinguish it from missing fields.
func (r PaymentRequest) ValidateSubmission() error {
	if r.Obra == 0 {
		return ErrMissingObra
	}
	if strings.TrimSpace(r.Referente) == "" {
		return ErrMissingReferente
	}
	if err := r.Valor.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(r.TitularNome) == "" {
		return ErrMissingTitular
	}
	if strings.TrimSpace(r.CpfCnpj) == "" {
		return ErrMissingDocumento
	}
	if !r.FormaPagamento.IsValid() {
		return ErrInvalidMethod
	}
	if len(r.Parcelas) > MaxInstallments {
		return ErrTooManyParcelas
	}
	switch r.FormaPagamento {
	case Pix:
		if strings.TrimSpace(r.ChavePix) == "" {
			return ErrMissingChavePix
		}
	case Boleto:
		if len(r.Parcelas) == 0 || r.Parcelas[0].DueDate.IsZero() {
			return ErrMissingVencimento
		}
		if len(r.Parcelas) > 1 && ScheduleTotal(r.Parcelas).Cents != r.Valor.Cents {
			return ErrScheduleSum
		}
	}
	return nil
}
