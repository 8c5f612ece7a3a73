package postgresql

import (
	"testing"
	"time"
)

func TestOptionsNormalized(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   Options
		want Options
	}{
		{
			name: "zero value gets defaults",
			in:   Options{},
			want: Options{MaxOpenConns: 25, MaxIdleConns: 5, ConnMaxLifetime: time.Hour},
		},
		{
			name: "explicit values pass through",
			in:   Options{MaxOpenConns: 50, MaxIdleConns: 10, ConnMaxLifetime: 30 * time.Minute},
			want: Options{MaxOpenConns: 50, MaxIdleConns: 10, ConnMaxLifetime: 30 * time.Minute},
		},
		{
			name: "idle clamped to open",
			in:   Options{MaxOpenConns: 4, MaxIdleConns: 10},
			want: Options{MaxOpenConns: 4, MaxIdleConns: 4, ConnMaxLifetime: time.Hour},
		},
		{
			name: "negative values fall back to defaults",
			in:   Options{MaxOpenConns: -1, MaxIdleConns: -1, ConnMaxLifetime: -time.Minute},
			want: Options{MaxOpenConns: 25, MaxIdleConns: 5, ConnMaxLifetime: time.Hour},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.in.normalized(); got != tt.want {
				t.Fatalf("normalized() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
