package intent

import "testing"

func TestClassifyIgnoresUnrelatedMessages(t *testing.T) {
	messages := []string{
		"",
		"How are ICICI Bank margins trending?",
		"Summarize the latest 10-K risks",
		"Compare Walmart vs Target",
		"intelligent analysis please",
	}
	for _, msg := range messages {
		if det := Classify(msg); det != nil {
			t.Fatalf("Classify(%q) = %+v, want nil", msg, det)
		}
	}
}

func TestClassifyExtractsTickerAfterFor(t *testing.T) {
	det := Classify("Market intelligence for AAPL")
	if det == nil || !det.Detected {
		t.Fatalf("expected detection, got %+v", det)
	}
	if det.Ticker != "AAPL" {
		t.Fatalf("expected AAPL, got %q", det.Ticker)
	}
}

func TestClassifyNormalizesCase(t *testing.T) {
	det := Classify("intelligence for zomato")
	if det == nil || det.Ticker != "ZOMATO" {
		t.Fatalf("expected ZOMATO, got %+v", det)
	}
}

func TestClassifyParenthesizedTicker(t *testing.T) {
	det := Classify("market intelligence on Zomato Ltd (ZOMATO)")
	if det == nil || det.Ticker != "ZOMATO" {
		t.Fatalf("expected ZOMATO, got %+v", det)
	}
}

func TestClassifyBareTokenTicker(t *testing.T) {
	det := Classify("TSLA market intelligence")
	if det == nil || det.Ticker != "TSLA" {
		t.Fatalf("expected TSLA, got %+v", det)
	}
}

func TestClassifyKeywordWithoutTicker(t *testing.T) {
	det := Classify("market intelligence")
	if det == nil {
		t.Fatal("expected detection")
	}
	if !det.Detected || !det.NeedsTicker || det.Ticker != "" {
		t.Fatalf("expected needs-ticker detection, got %+v", det)
	}
}

func TestClassifyForPatternWinsOverParens(t *testing.T) {
	det := Classify("market intelligence for MSFT (Microsoft1)")
	if det == nil || det.Ticker != "MSFT" {
		t.Fatalf("expected MSFT, got %+v", det)
	}
}

func TestClassifyFallsThroughOnInvalidCandidate(t *testing.T) {
	// "for" is followed by a token longer than ten characters, so the
	// first matcher yields nothing and the parenthesized form wins.
	det := Classify("market intelligence for Telecommunications (MTNL)")
	if det == nil || det.Ticker != "MTNL" {
		t.Fatalf("got %+v", det)
	}
}
