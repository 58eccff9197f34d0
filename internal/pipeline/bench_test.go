package pipeline

import (
	"context"
	"strings"
	"testing"

	"supplychain/internal/storage"
)

// BenchmarkLoadAndExport exercises the hot path end to end in memory: CSV
// parse, coercion by several workers, collection, then batching into a fake
// COPY function.
//
// Run with:
//
//	go test ./internal/pipeline -run=^$ -bench ^BenchmarkLoadAndExport$ -benchmem
func BenchmarkLoadAndExport(b *testing.B) {
	const rows = 20000

	var sb strings.Builder
	sb.WriteString(csvHeader())
	for i := 1; i <= rows; i++ {
		sb.WriteString(csvLine(orderLine(i, "1/31/2018 22:56")))
	}
	body := sb.String()

	copyFn := func(_ context.Context, _ []string, batch [][]any) (int64, error) {
		return int64(len(batch)), nil
	}

	b.SetBytes(int64(len(body)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		f, _, err := Load(context.Background(), memSource{body: body}, LoadOptions{Workers: 4})
		if err != nil {
			b.Fatalf("Load: %v", err)
		}

		in := make(chan []any, 4096)
		go func() {
			defer close(in)
			for _, r := range f.Rows {
				in <- r
			}
		}()
		n, _, err := storage.LoadBatches(context.Background(), storage.ColumnNames(f), in, 4096, copyFn)
		if err != nil {
			b.Fatalf("LoadBatches: %v", err)
		}
		if n != rows {
			b.Fatalf("loaded %d rows, want %d", n, rows)
		}
	}
}

