package core

// RequestFilter is the multi-criteria filter the review table applies to the
// fetched record list. Zero-valued criteria match everything; set criteria
// are combined with AND.
type RequestFilter struct {
	Lancado        *bool
	FormaPagamento PaymentMethod
	DataLancamento Date
	Obra           int64
	Titular        int64
}

// Matches reports whether a request passes every set criterion.
func (f RequestFilter) Matches(r PaymentRequest) bool {
	if f.Lancado != nil && r.Lancado != *f.Lancado {
		return false
	}
	if f.FormaPagamento != "" && r.FormaPagamento != f.FormaPagamento {
		return false
	}
	if !f.DataLancamento.IsZero() && !r.DataLancamento.Equal(f.DataLancamento) {
		return false
	}
	if f.Obra != 0 && r.Obra != f.Obra {
		return false
	}
	if f.Titular != 0 && r.Titular != f.Titular {
		return false
	}
	return true
}

// FilterRequests returns the subset of requests matching the filter,
// preserving order.
func FilterRequests(requests []PaymentRequest, f RequestFilter) []PaymentRequest {
	out := make([]PaymentRequest, 0, len(requests))
	for _, r := range requests {
		if f.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}
