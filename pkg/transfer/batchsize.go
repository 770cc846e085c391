package transfer

import (
	"go.uber.org/zap"
)

const (
	// MinBatchSize is the smallest automatically chosen batch size.
	MinBatchSize = 1000
	// DefaultStreamBatchSize is used when the input size is unknown.
	DefaultStreamBatchSize = 10 * 1000
	// AvgRowBytes is the assumed size of one CSV row.
	AvgRowBytes = 50
)

// ChooseBatchSize returns the number of rows per batch. A positive override
// wins. A negative sizeHint means the input size is unknown (stdin or a
// stream). Otherwise the size is derived from the byte size of the input and
// never drops below MinBatchSize.
func ChooseBatchSize(override int, sizeHint int64, logger *zap.Logger) int {
	if override > 0 {
		return override
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if sizeHint < 0 {
		logger.Warn("input size unknown, using default batch size",
			zap.Int("batch_size", DefaultStreamBatchSize))
		return DefaultStreamBatchSize
	}
	size := int(sizeHint / AvgRowBytes)
	if size < MinBatchSize {
		size = MinBatchSize
	}
	logger.Warn("batch size computed from input size",
		zap.Int64("input_bytes", sizeHint),
		zap.Int("batch_size", size))
	return size
}
