package canon

// BucketForTest inserts rec under explicit abs and signed keys, bypassing the
// rounding Accept performs. It lets tests build groups that rounding alone
// can never produce.
func (a *Accumulator) BucketForTest(absKey, signedKey float64, rec Record) {
	a.seen[rec.Label] = struct{}{}
	a.abs.add(absKey, rec)
	a.signed.add(signedKey, rec)
	a.exact.add(rec.Value, rec)
}
