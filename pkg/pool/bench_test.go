package pool

import (
	"context"
	"testing"
	"time"

	"github.com/ajitpratap0/stockpile/pkg/expire"
)

func benchPool(b *testing.B, size int) *Pool[*testObject] {
	b.Helper()
	p, err := New(Config[*testObject]{
		Name:       "bench",
		Size:       size,
		Factory:    &testFactory{},
		Expiration: expire.Never(),
	})
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() {
		if !p.Shutdown().Await(5 * time.Second) {
			b.Error("pool did not shut down")
		}
	})
	return p
}

// The single-goroutine loop exercises the TLR fast path: claim after
// release should not touch the live channel at all.
func BenchmarkClaimReleaseUncontended(b *testing.B) {
	p := benchPool(b, 8)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		lease, err := p.Claim(ctx, time.Second)
		if err != nil {
			b.Fatal(err)
		}
		if err := lease.Release(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkClaimReleaseParallel(b *testing.B) {
	p := benchPool(b, 64)
	ctx := context.Background()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			lease, err := p.Claim(ctx, time.Second)
			if err != nil {
				b.Fatal(err)
			}
			if err := lease.Release(); err != nil {
				b.Fatal(err)
			}
		}
	})
}

// Depleted-pool contention: more claimers than slots, so the slow path
// and the channel wait are both on the profile.
func BenchmarkClaimReleaseDepleted(b *testing.B) {
	p := benchPool(b, 2)
	ctx := context.Background()

	b.ResetTimer()
	b.SetParallelism(8)
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			lease, err := p.Claim(ctx, time.Second)
			if err != nil {
				b.Fatal(err)
			}
			if err := lease.Release(); err != nil {
				b.Fatal(err)
			}
		}
	})
}
