package news

// AnalysisStatus tags which variant an Analysis holds.
type AnalysisStatus int

const (
	AnalysisNone AnalysisStatus = iota
	AnalysisSuccess
	AnalysisError
)

func (s AnalysisStatus) String() string {
	switch s {
	case AnalysisSuccess:
		return "success"
	case AnalysisError:
		return "failed"
	default:
		return "unanalyzed"
	}
}

// Analysis is the optional enrichment attached by the analysis service.
// Text and Model/Tokens are meaningful for AnalysisSuccess; Text and Error
// for AnalysisError. The zero value is an unanalyzed item.
type Analysis struct {
	Status AnalysisStatus
	Text   string
	Model  string
	Tokens int
	Error  string
}

func SuccessAnalysis(text, model string, tokens int) Analysis {
	return Analysis{Status: AnalysisSuccess, Text: text, Model: model, Tokens: tokens}
}

func FailedAnalysis(text string, err error) Analysis {
	a := Analysis{Status: AnalysisError, Text: text}
	if err != nil {
		a.Error = err.Error()
	}
	return a
}
