package model

// OCRModel selects which model processes a submission. Values are the wire
// identifiers the service expects in the submit request.
type OCRModel string

const (
	// ModelDocQwen3B is the default model: best quality, multilingual.
	ModelDocQwen3B OCRModel = "doc_qwen_3b_multi_v2.0.0_prod"
	// ModelDocTrf3B is table-aware and renders tabular regions as HTML.
	ModelDocTrf3B OCRModel = "doc_trf_3b_multi_v1.0.0_prod"
	// ModelDocTrf09B is the fastest model, covering 109 languages.
	ModelDocTrf09B OCRModel = "doc_trf_0.9b_multi_v1.0.0_prod"
)

// DefaultModel is used when a submission does not name a model.
const DefaultModel = ModelDocQwen3B

// KnownModels returns every model identifier this client ships with, default
// first. The service may accept identifiers beyond this list.
func KnownModels() []OCRModel {
	return []OCRModel{ModelDocQwen3B, ModelDocTrf3B, ModelDocTrf09B}
}
