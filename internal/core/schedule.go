package core

// GenerateSchedule splits a total into count monthly installments starting at
// start. Each installment gets floor(total/count) centavos; the division
// remainder is absorbed entirely by installment #1 so the sum always equals
// the total. Due dates advance one calendar month per installment with
// month-end clamping.
//
// Invalid inputs (count < 1, count above MaxInstallments, negative total,
// zero start date) yield nil: the caller is mid-typing and cannot compute a
// schedule yet, which is not an error condition.
func GenerateSchedule(totalCents int64, count int, start Date) []Installment {
	if totalCents < 0 || count < 1 || count > MaxInstallments || start.IsZero() {
		return nil
	}
	base := totalCents / int64(count)
	rem := totalCents % int64(count)
	out := make([]Installment, count)
	for i := range out {
		amount := base
		if i == 0 {
			amount += rem
		}
		out[i] = Installment{
			Number:  i + 1,
			Amount:  Money{Cents: amount},
			DueDate: start.AddMonths(i),
		}
	}
	return out
}

// ScheduleTotal sums the installment amounts.
func ScheduleTotal(schedule []Installment) Money {
	var total int64
	for _, p := range schedule {
		total += p.Amount.Cents
	}
	return Money{Cents: total}
}

// ApplyAmountEdit returns a copy of the schedule with one installment's
// amount replaced. No other installment is touched and the schedule is never
// renormalized; the sum invariant is re-checked only at submission.
// An out-of-range index returns the schedule unchanged.
func ApplyAmountEdit(schedule []Installment, index int, cents int64) []Installment {
	if index < 0 || index >= len(schedule) {
		return schedule
	}
	out := cloneSchedule(schedule)
	out[index].Amount = Money{Cents: cents}
	return out
}

// ApplyDueDateEdit returns a copy of the schedule with one installment's due
// date replaced, under the same rules as ApplyAmountEdit.
func ApplyDueDateEdit(schedule []Installment, index int, due Date) []Installment {
	if index < 0 || index >= len(schedule) {
		return schedule
	}
	out := cloneSchedule(schedule)
	out[index].DueDate = due
	return out
}

// RefreshSchedule regenerates the schedule for the given inputs, but keeps
// the current one when the regenerated values are identical. Without that
// check, every re-render with unchanged totals would clobber the user's
// in-progress manual edits.
func RefreshSchedule(current []Installment, totalCents int64, count int, start Date) []Installment {
	generated := GenerateSchedule(totalCents, count, start)
	if schedulesEqual(generated, current) {
		return current
	}
	return generated
}

func schedulesEqual(a, b []Installment) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Number != b[i].Number ||
			a[i].Amount.Cents != b[i].Amount.Cents ||
			!a[i].DueDate.Equal(b[i].DueDate) {
			return false
		}
	}
	return true
}

func cloneSchedule(s []Installment) []Installment {
	out := make([]Installment, len(s))
	copy(out, s)
	return out
}
