package discovery

import "testing"

func TestFingerprintDeterministic(t *testing.T) {
	a := Fingerprint("NorthBridge Ventures", "Investment Analyst", "London, UK", "https://jobs.northbridge.vc/investment-analyst")
	b := Fingerprint("NorthBridge Ventures", "Investment Analyst", "London, UK", "https://jobs.northbridge.vc/investment-analyst")
	if a != b {
		t.Fatalf("fingerprints differ for identical input: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
}

func TestFingerprintIgnoresQueryAndCase(t *testing.T) {
	base := Fingerprint("NorthBridge Ventures", "Investment Analyst", "London, UK", "https://jobs.northbridge.vc/investment-analyst")
	tracked := Fingerprint("  northbridge ventures ", "INVESTMENT ANALYST", "london, uk", "https://jobs.northbridge.vc/investment-analyst?src=wellfound&utm=1")
	if base != tracked {
		t.Fatalf("tracking query or casing changed the fingerprint")
	}
}

func TestFingerprintDistinguishesPostings(t *testing.T) {
	a := Fingerprint("NorthBridge Ventures", "Investment Analyst", "London, UK", "https://jobs.northbridge.vc/investment-analyst")
	b := Fingerprint("NorthBridge Ventures", "Investment Associate", "London, UK", "https://jobs.northbridge.vc/investment-analyst")
	if a == b {
		t.Fatalf("different titles produced the same fingerprint")
	}
}

func TestFingerprintUnparsableURLFallsBack(t *testing.T) {
	a := Fingerprint("Acme", "Analyst", "Remote", "://not a url")
	b := Fingerprint("Acme", "Analyst", "Remote", "://NOT A URL")
	if a != b {
		t.Fatalf("unparsable URLs should fall back to the lowercased raw value")
	}
}
