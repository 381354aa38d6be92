package shared

import "testing"

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		ms   int
		want string
	}{
		{0, "0:00"},
		{1000, "0:01"},
		{59000, "0:59"},
		{60000, "1:00"},
		{201000, "3:21"},
		{-5, "0:00"},
	}

	for _, c := range cases {
		if got := FormatDuration(c.ms); got != c.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", c.ms, got, c.want)
		}
	}
}

func TestNormalizeTrackKey(t *testing.T) {
	if NormalizeTrackKey("Song", "Artist") != NormalizeTrackKey("  song ", " ARTIST ") {
		t.Error("expected case and whitespace insensitive keys")
	}
	if NormalizeTrackKey("Song", "A") == NormalizeTrackKey("Song", "B") {
		t.Error("expected different artists to produce different keys")
	}
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == "" || a == b {
		t.Errorf("expected unique non-empty ids, got %q and %q", a, b)
	}
}
