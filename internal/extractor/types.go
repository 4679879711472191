package extractor

// Field is one extracted value with the model's confidence in it.
// A nil Value means the thread did not contain the field.
type Field struct {
	Value      *string `json:"value" jsonschema:"oneof_type=string;null"`
	Confidence float64 `json:"confidence" jsonschema:"minimum=0,maximum=1"`
}

// Confidence bands used to flag fields for human review.
const (
	HighConfidence   = 0.8
	MediumConfidence = 0.5
)

// Level buckets the confidence as high, medium or low.
func (f Field) Level() string {
	switch {
	case f.Confidence >= HighConfidence:
		return "high"
	case f.Confidence >= MediumConfidence:
		return "medium"
	default:
		return "low"
	}
}

// String returns the value or "" when absent.
func (f Field) String() string {
	if f.Value == nil {
		return ""
	}
	return *f.Value
}

// Result holds the six fields extracted from one thread.
type Result struct {
	FundName     Field `json:"fund_name"`
	Items        Field `json:"items"`
	DSEstimation Field `json:"ds_estimation"`
	LEEstimation Field `json:"le_estimation"`
	QAEstimation Field `json:"qa_estimation"`
	ClickUpLink  Field `json:"clickup_link"`
}

// FieldNames lists the contract keys in display order.
var FieldNames = []string{"fund_name", "items", "ds_estimation", "le_estimation", "qa_estimation", "clickup_link"}

// Named returns the field for a contract key.
func (r *Result) Named(name string) (Field, bool) {
	switch name {
	case "fund_name":
		return r.FundName, true
	case "items":
		return r.Items, true
	case "ds_estimation":
		return r.DSEstimation, true
	case "le_estimation":
		return r.LEEstimation, true
	case "qa_estimation":
		return r.QAEstimation, true
	case "clickup_link":
		return r.ClickUpLink, true
	}
	return Field{}, false
}

func (r *Result) set(name string, f Field) {
	switch name {
	case "fund_name":
		r.FundName = f
	case "items":
		r.Items = f
	case "ds_estimation":
		r.DSEstimation = f
	case "le_estimation":
		r.LEEstimation = f
	case "qa_estimation":
		r.QAEstimation = f
	case "clickup_link":
		r.ClickUpLink = f
	}
}

// LowConfidence returns the keys of fields below the medium band.
func (r *Result) LowConfidence() []string {
	var out []string
	for _, name := range FieldNames {
		if f, _ := r.Named(name); f.Level() == "low" {
			out = append(out, name)
		}
	}
	return out
}
