package http

import (
	"fmt"

	"github.com/Jonatasvm/pagamento-sub000/internal/core"
)

// requestPayload is the wire form of a payment request. Amounts travel as
// decimal strings ("1234.56") and dates as ISO (YYYY-MM-DD).
type requestPayload struct {
	Obra           int64            `json:"obra"`
	Conta          int64            `json:"conta"`
	Titular        int64            `json:"titular"`
	TitularNome    string           `json:"titular_nome"`
	CpfCnpj        string           `json:"cpf_cnpj"`
	Referente      string           `json:"referente"`
	Valor          string           `json:"valor"`
	FormaPagamento string           `json:"forma_pagamento"`
	ChavePix       string           `json:"chave_pix"`
	Parcelas       []parcelaPayload `json:"parcelas"`

	// Shortcut for boleto forms: the server generates the schedule when no
	// explicit parcelas are sent.
	QuantidadeParcelas int    `json:"quantidade_parcelas"`
	PrimeiroVencimento string `json:"primeiro_vencimento"`

	DataLancamento  string `json:"data_lancamento"`
	DataCompetencia string `json:"data_competencia"`
	DataPagamento   string `json:"data_pagamento"`
	Categoria       string `json:"categoria"`
	QuemPaga        int64  `json:"quem_paga"`
	Lancado         bool   `json:"lancado"`
	LinkAnexo       string `json:"link_anexo"`
	Observacao      string `json:"observacao"`
}

type parcelaPayload struct {
	Numero     int    `json:"numero"`
	Valor      string `json:"valor"`
	Vencimento string `json:"vencimento"`
}

func (p requestPayload) toCore() (*core.PaymentRequest, error) {
	cents, err := core.ParseDecimalToCents(p.Valor)
	if err != nil {
		return nil, fmt.Errorf("valor: %w", err)
	}

	req := &core.PaymentRequest{
		Obra:           p.Obra,
		Conta:          p.Conta,
		Titular:        p.Titular,
		TitularNome:    p.TitularNome,
		CpfCnpj:        p.CpfCnpj,
		Referente:      p.Referente,
		Valor:          core.Money{Cents: cents},
		FormaPagamento: core.PaymentMethod(p.FormaPagamento),
		ChavePix:       p.ChavePix,
		Categoria:      p.Categoria,
		QuemPaga:       p.QuemPaga,
		Lancado:        p.Lancado,
		LinkAnexo:      p.LinkAnexo,
		Observacao:     p.Observacao,
	}

	if req.DataLancamento, err = core.ParseDate(p.DataLancamento); err != nil {
		return nil, fmt.Errorf("data_lancamento: %w", err)
	}
	if req.DataCompetencia, err = core.ParseDate(p.DataCompetencia); err != nil {
		return nil, fmt.Errorf("data_competencia: %w", err)
	}
	if req.DataPagamento, err = core.ParseDate(p.DataPagamento); err != nil {
		return nil, fmt.Errorf("data_pagamento: %w", err)
	}

	switch {
	case len(p.Parcelas) > 0:
		if len(p.Parcelas) > core.MaxInstallments {
			return nil, core.ErrTooManyParcelas
		}
		for _, pp := range p.Parcelas {
			parcelaCents, err := core.ParseDecimalToCents(pp.Valor)
			if err != nil {
				return nil, fmt.Errorf("parcela %d valor: %w", pp.Numero, err)
			}
			due, err := core.ParseDate(pp.Vencimento)
			if err != nil {
				return nil, fmt.Errorf("parcela %d vencimento: %w", pp.Numero, err)
			}
			req.Parcelas = append(req.Parcelas, core.Installment{
				Number:  pp.Numero,
				Amount:  core.Money{Cents: parcelaCents},
				DueDate: due,
			})
		}
	case p.QuantidadeParcelas > 0:
		if p.QuantidadeParcelas > core.MaxInstallments {
			return nil, core.ErrTooManyParcelas
		}
		start, err := core.ParseDate(p.PrimeiroVencimento)
		if err != nil {
			return nil, fmt.Errorf("primeiro_vencimento: %w", err)
		}
		req.Parcelas = core.GenerateSchedule(cents, p.QuantidadeParcelas, start)
	}

	return req, nil
}

// requestView is the wire response, with both machine and display forms of
// the amount.
type requestView struct {
	ID             int64         `json:"id"`
	Solicitante    int64         `json:"solicitante"`
	Obra           int64         `json:"obra"`
	Conta          int64         `json:"conta"`
	Titular        int64         `json:"titular"`
	TitularNome    string        `json:"titular_nome"`
	CpfCnpj        string        `json:"cpf_cnpj"`
	Referente      string        `json:"referente"`
	Valor          string        `json:"valor"`
	ValorBRL       string        `json:"valor_brl"`
	FormaPagamento string        `json:"forma_pagamento"`
	ChavePix       string        `json:"chave_pix"`
	Parcelas       []parcelaView `json:"parcelas"`

	DataLancamento  string `json:"data_lancamento"`
	DataCompetencia string `json:"data_competencia"`
	DataPagamento   string `json:"data_pagamento"`
	Categoria       string `json:"categoria"`
	QuemPaga        int64  `json:"quem_paga"`
	Lancado         bool   `json:"lancado"`
	LinkAnexo       string `json:"link_anexo"`
	Observacao      string `json:"observacao"`
	Version         int64  `json:"version"`
}

type parcelaView struct {
	Numero     int    `json:"numero"`
	Valor      string `json:"valor"`
	ValorBRL   string `json:"valor_brl"`
	Vencimento string `json:"vencimento"`
}

func viewOf(r core.PaymentRequest) requestView {
	v := requestView{
		ID:             r.ID,
		Solicitante:    r.Solicitante,
		Obra:           r.Obra,
		Conta:          r.Conta,
		Titular:        r.Titular,
		TitularNome:    r.TitularNome,
		CpfCnpj:        r.CpfCnpj,
		Referente:      r.Referente,
		Valor:          r.Valor.DecimalString(),
		ValorBRL:       r.Valor.BRL(),
		FormaPagamento: string(r.FormaPagamento),
		ChavePix:       r.ChavePix,

		DataLancamento:  r.DataLancamento.String(),
		DataCompetencia: r.DataCompetencia.String(),
		DataPagamento:   r.DataPagamento.String(),
		Categoria:       r.Categoria,
		QuemPaga:        r.QuemPaga,
		Lancado:         r.Lancado,
		LinkAnexo:       r.LinkAnexo,
		Observacao:      r.Observacao,
		Version:         r.Version,
	}
	for _, p := range r.Parcelas {
		v.Parcelas = append(v.Parcelas, parcelaView{
			Numero:     p.Number,
			Valor:      p.Amount.DecimalString(),
			ValorBRL:   p.Amount.BRL(),
			Vencimento: p.DueDate.String(),
		})
	}
	return v
}

func viewsOf(requests []core.PaymentRequest) []requestView {
	views := make([]requestView, 0, len(requests))
	for _, r := range requests {
		views = append(views, viewOf(r))
	}
	return views
}
