package slug

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "diacritics", in: "Eva Nováková", want: "eva_novakova"},
		{name: "already plain", in: "eva novakova", want: "eva_novakova"},
		{name: "whitespace runs", in: "  TJ   Sokol\tBrno \n", want: "tj_sokol_brno"},
		{name: "czech letters", in: "Řehoř Čížek", want: "rehor_cizek"},
		{name: "punctuation dropped", in: "SK Slavia Praha, z.s.", want: "sk_slavia_praha_zs"},
		{name: "digits kept", in: "FK 1. FC Brno 2010", want: "fk_1_fc_brno_2010"},
		{name: "empty", in: "", want: ""},
		{name: "whitespace only", in: " \t\n", want: ""},
		{name: "symbols only", in: "—!?", want: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.in); got != tc.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeEquivalentNamesCollide(t *testing.T) {
	if Normalize("Eva Nováková") != Normalize("eva novakova") {
		t.Fatalf("expected diacritic and case variants to normalize equally")
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"Eva Nováková", "  Jan  Žižka ", "A.C. Sparta", "ßtraße"}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Fatalf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestNormalizeCharset(t *testing.T) {
	inputs := []string{"Ünïcödé Nämé", "O'Neil-Smith", "日本 チーム", "Łukasz Ćwik"}
	for _, in := range inputs {
		for _, r := range Normalize(in) {
			if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_') {
				t.Fatalf("Normalize(%q) produced rune %q outside [a-z0-9_]", in, r)
			}
		}
	}
}
