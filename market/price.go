package market

// Price is an integer tick price. Mini-index quotes such as 133615 fit
// comfortably; multiply in int64 when quantities are involved.
type Price = int32

// Points converts a signed price difference into an int64 so it can be
// multiplied by quantity without overflow.
func Points(from, to Price) int64 {
	return int64(to) - int64(from)
}
