package pool

// Partition splits addresses into contiguous batches of at most batchSize,
// preserving input order. Every address appears in exactly one batch: the
// union of all batches equals the input with no duplicates and no omissions.
func Partition(addresses []string, batchSize int) [][]string {
	if len(addresses) == 0 || batchSize < 1 {
		return nil
	}

	n := (len(addresses) + batchSize - 1) / batchSize
	batches := make([][]string, 0, n)
	for start := 0; start < len(addresses); start += batchSize {
		end := start + batchSize
		if end > len(addresses) {
			end = len(addresses)
		}
		batches = append(batches, addresses[start:end])
	}
	return batches
}
