package di_test

import (
	"testing"

	"github.com/sghaida/autocode/di"
)

type benchDB struct {
	DSN string
}

/*
   Shared helpers (NOT counted in benchmarks)
*/

func newBenchInjector(b *testing.B) *di.Injector {
	b.Helper()
	in := di.NewInjector().Provide("db.DB", func(p di.Params) (any, error) {
		dsn, _ := p["dsn"].(string)
		return &benchDB{DSN: dsn}, nil
	})
	if err := in.Share("primary", "db.DB", di.Params{"dsn": "postgres"}); err != nil {
		b.Fatal(err)
	}
	return in
}

/*
   Benchmarks
*/

func BenchmarkNewInstance(b *testing.B) {
	in := newBenchInjector(b)
	params := di.Params{"dsn": "postgres"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = in.NewInstance("db.DB", params)
	}
}

func BenchmarkNewAs(b *testing.B) {
	in := newBenchInjector(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = di.NewAs[*benchDB](in, "db.DB", nil)
	}
}

func BenchmarkGet_Shared(b *testing.B) {
	in := newBenchInjector(b)
	_, _ = in.Get("primary")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = in.Get("primary")
	}
}

func BenchmarkGetAs_Shared(b *testing.B) {
	in := newBenchInjector(b)
	_, _ = in.Get("primary")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = di.GetAs[*benchDB](in, "primary")
	}
}

func BenchmarkHas(b *testing.B) {
	in := newBenchInjector(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = in.Has("primary")
	}
}
