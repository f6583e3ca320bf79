package matching

import "testing"

func TestNormalizeCompanyName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"strips legal form", "SARL ATLAS DISTRIBUTION", "atlas distribution"},
		{"strips accented societe", "Société Générale Maroc", "générale maroc"},
		{"strips punctuation", "ATLAS-DISTRIBUTION & FILS", "atlas distribution fils"},
		{"collapses whitespace", "  ATLAS   SUD  ", "atlas sud"},
		{"keeps legal form embedded in a word", "METSA NEGOCE", "metsa negoce"},
		{"strips multiple forms", "STE ETS LAMRANI", "lamrani"},
		{"empty when only legal forms remain", "SARL SA", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeCompanyName(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeCompanyName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNameSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{"identical after normalization", "SARL ATLAS NEGOCE", "ATLAS NEGOCE", 1},
		{"case and punctuation ignored", "Atlas-Negoce", "ATLAS NEGOCE", 1},
		{"partial token overlap", "ATLAS NEGOCE MAROC", "ATLAS NEGOCE", 2.0 / 3.0},
		{"no overlap", "ATLAS NEGOCE", "OMEGA TRADING", 0},
		{"legal forms carry no signal", "SARL", "STE", 0},
		{"one side empty", "", "ATLAS NEGOCE", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NameSimilarity(tt.a, tt.b)
			if got != tt.want {
				t.Errorf("NameSimilarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestFuzzyReferenceMatch(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want bool
	}{
		{"shared long digit run", "FAC-2023-0456", "VIR 0456 REGLEMENT", true},
		{"run contained in a longer run", "FAC-3456", "PAY 123456", true},
		{"short run inside a long run", "FAC-12", "PAY 123456", true},
		{"short shared run rejected", "FAC-12", "REF-12", false},
		{"disjoint runs", "FAC-1111", "REF-2222", false},
		{"no digits at all", "FACTURE", "VIREMENT", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fuzzyReferenceMatch(tt.a, tt.b)
			if got != tt.want {
				t.Errorf("fuzzyReferenceMatch(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
