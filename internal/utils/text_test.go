package utils

import "testing"

func TestStripCodeFence(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{"plain", "  Ringkasan eksekutif.  ", "Ringkasan eksekutif."},
		{"markdown fence", "Berikut ringkasannya:\n```markdown\n**PPS** tahun ini\n```\nSelesai", "**PPS** tahun ini"},
		{"bare fence", "```\nParagraf satu\n\nParagraf dua\n```", "Paragraf satu\n\nParagraf dua"},
		{"unclosed", "```markdown\ntanpa penutup", "```markdown\ntanpa penutup"},
	}
	for _, c := range cases {
		if got := StripCodeFence(c.content); got != c.want {
			t.Errorf("%s: StripCodeFence() = %q, want %q", c.name, got, c.want)
		}
	}
}
