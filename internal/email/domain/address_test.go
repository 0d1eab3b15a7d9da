package domain

import "testing"

func TestParseAddress(t *testing.T) {
	tests := []struct {
		in        string
		wantName  string
		wantEmail string
	}{
		{`"Jane Doe" <jane@example.com>`, "Jane Doe", "jane@example.com"},
		{`Jane Doe <jane@example.com>`, "Jane Doe", "jane@example.com"},
		{`<jane@example.com>`, "", "jane@example.com"},
		{`jane@example.com`, "", "jane@example.com"},
		{`  jane@example.com  `, "", "jane@example.com"},
	}

	for _, tt := range tests {
		got := ParseAddress(tt.in)
		if got.Name != tt.wantName || got.Email != tt.wantEmail {
			t.Errorf("ParseAddress(%q) = %+v, want {%s %s}", tt.in, got, tt.wantName, tt.wantEmail)
		}
	}
}

func TestParseAddressList(t *testing.T) {
	got := ParseAddressList(`"A" <a@x.com>, b@y.com`)
	if len(got) != 2 {
		t.Fatalf("got %d addresses, want 2", len(got))
	}
	if got[0].Name != "A" || got[0].Email != "a@x.com" {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].Email != "b@y.com" {
		t.Errorf("second = %+v", got[1])
	}

	if got := ParseAddressList("  "); got != nil {
		t.Errorf("blank list should be nil, got %+v", got)
	}
}
