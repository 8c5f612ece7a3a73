package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestParseStatusFromString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    Status
		wantErr bool
	}{
		{name: "valid uppercase", input: "SENT", want: StatusSent},
		{name: "valid lowercase with spaces", input: " pending ", want: StatusPending},
		{name: "invalid", input: "queued", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseStatusFromString(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("ParseStatusFromString() error = %v, want ErrValidation", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("ParseStatusFromString() unexpected error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("ParseStatusFromString() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestStatusIsTerminal(t *testing.T) {
	t.Parallel()

	if StatusPending.IsTerminal() {
		t.Fatal("PENDING should not be terminal")
	}
	if !StatusSent.IsTerminal() {
		t.Fatal("SENT should be terminal")
	}
	if !StatusFailed.IsTerminal() {
		t.Fatal("FAILED should be terminal")
	}
}

func TestParseChannelFromString(t *testing.T) {
	t.Parallel()

	got, err := ParseChannelFromString(" in_app ")
	if err != nil {
		t.Fatalf("ParseChannelFromString() unexpected error = %v", err)
	}
	if got != ChannelInApp {
		t.Fatalf("ParseChannelFromString() = %s, want %s", got, ChannelInApp)
	}

	_, err = ParseChannelFromString("fax")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("ParseChannelFromString() error = %v, want ErrValidation", err)
	}
}

func TestNotificationValidate(t *testing.T) {
	t.Parallel()

	base := Notification{
		UserID:  "user-1",
		Channel: ChannelEmail,
		Content: "hello",
	}

	tests := []struct {
		name    string
		mutate  func(*Notification)
		wantErr bool
	}{
		{
			name: "valid notification",
			mutate: func(n *Notification) {
				// keep base
			},
		},
		{
			name: "missing user id",
			mutate: func(n *Notification) {
				n.UserID = "  "
			},
			wantErr: true,
		},
		{
			name: "missing content",
			mutate: func(n *Notification) {
				n.Content = ""
			},
			wantErr: true,
		},
		{
			name: "invalid channel",
			mutate: func(n *Notification) {
				n.Channel = Channel("VOICE")
			},
			wantErr: true,
		},
		{
			name: "content over limit",
			mutate: func(n *Notification) {
				n.Content = strings.Repeat("a", MaxContentLength+1)
			},
			wantErr: true,
		},
		{
			name: "rune-aware length accepted",
			mutate: func(n *Notification) {
				n.Content = strings.Repeat("ğ", MaxContentLength)
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			current := base
			tt.mutate(&current)

			err := current.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("Validate() error = %v, want ErrValidation", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("Validate() unexpected error = %v", err)
			}
		})
	}
}
