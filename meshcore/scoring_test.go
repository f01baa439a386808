package meshcore

import "testing"

func TestIntegerTFIDFZeroInputs(t *testing.T) {
	if got := IntegerTFIDF(3, 0, 10, 2); got != 0 {
		t.Fatalf("expected 0 for zero total_terms, got %d", got)
	}
	if got := IntegerTFIDF(3, 10, 10, 0); got != 0 {
		t.Fatalf("expected 0 for zero docs_with_term, got %d", got)
	}
}

func TestIntegerTFIDFBaselineWhenTermInEveryDoc(t *testing.T) {
	// total_docs == docs_with_term -> ratio 1.0 -> idf baseline 10000.
	got := IntegerTFIDF(5, 10, 4, 4)
	// tf = 5*10000/10 = 5000; idf = 10000; score = 5000*10000/10000 = 5000.
	if got != 5000 {
		t.Fatalf("got %d want 5000", got)
	}
}

func TestIntegerTFIDFRareTermScoresHigher(t *testing.T) {
	common := IntegerTFIDF(5, 10, 100, 90)
	rare := IntegerTFIDF(5, 10, 100, 2)
	if rare <= common {
		t.Fatalf("expected rare term score %d > common term score %d", rare, common)
	}
}

func TestRankScoreStatusBonusOrdering(t *testing.T) {
	confirmed := RankScore(10, 5, 20, StatusConfirmed)
	pending := RankScore(10, 5, 20, StatusPending)
	disputed := RankScore(10, 5, 20, StatusDisputed)
	expired := RankScore(10, 5, 20, StatusExpired)

	if !(confirmed > pending && pending > expired && expired > disputed) {
		t.Fatalf("expected confirmed > pending > expired > disputed, got %d %d %d %d",
			confirmed, pending, expired, disputed)
	}
}

func TestRankScoreNeverNegative(t *testing.T) {
	got := RankScore(0, 0, 0, StatusDisputed)
	if got != 0 {
		t.Fatalf("expected floor of 0, got %d", got)
	}
}

func TestCombinedScoreWeighting(t *testing.T) {
	got := CombinedScore(10000, 0)
	if got != 7000 {
		t.Fatalf("got %d want 7000", got)
	}
	got = CombinedScore(0, 10000)
	if got != 3000 {
		t.Fatalf("got %d want 3000", got)
	}
}
