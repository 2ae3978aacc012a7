package scenario

// Aggregate operations, in priority order (first match wins, sum is the fallback).
const (
	OpSum     = "sum"
	OpAverage = "average"
	OpMedian  = "median"
	OpMax     = "max"
	OpMin     = "min"
	OpCount   = "count"
	OpFilter  = "filter"
)

var dataRules = []Rule{
	rule("computation", `compute|calculate|process|transform|aggregate`, ""),
	rule("dataType", `array|list|vector|data|values|numbers`, ""),
	rule("operation", `sum|average|mean|median|max|min|filter|map|reduce`, ""),
	rule("validation", `validate|check|verify|assert|ensure`, ""),
}

var operationRules = []Rule{
	rule(OpSum, `sum|total|add`, ""),
	rule(OpAverage, `average|mean|avg`, ""),
	rule(OpMedian, `median`, ""),
	rule(OpMax, `max|maximum|largest`, ""),
	rule(OpMin, `min|minimum|smallest`, ""),
	rule(OpCount, `count|length|size`, ""),
	rule(OpFilter, `filter|where|select`, ""),
}

// operationInputs is the read order of each aggregate program.
var operationInputs = map[string][]string{
	OpSum:     {"data", "expected_sum"},
	OpAverage: {"data", "expected_avg"},
	OpMedian:  {"data", "expected_median"},
	OpMax:     {"data", "expected_max"},
	OpMin:     {"data", "expected_min"},
	OpCount:   {"data", "threshold", "expected_count"},
	OpFilter:  {"data", "min_value", "max_value", "expected_count"},
}

var dataTypes = map[string]string{
	"data":            "Vec<u32>",
	"expected_sum":    "u64",
	"expected_avg":    "u32",
	"expected_median": "u32",
	"expected_max":    "u32",
	"expected_min":    "u32",
	"threshold":       "u32",
	"expected_count":  "u32",
	"min_value":       "u32",
	"max_value":       "u32",
}

func dataProcessing() *Scenario {
	return &Scenario{
		Descriptor: Descriptor{
			ID:          "data-processing",
			Name:        "Data Processing Proof",
			Description: "Prove correct computation over private data",
			Example:     "Prove statistical computations without revealing underlying data",
		},
		Parse:      parseDataProcessing,
		Program:    dataProcessingProgram,
		inputTypes: dataTypes,
	}
}

func parseDataProcessing(raw string) Features {
	tags, _ := matchRules(dataRules, raw)
	op := firstMatch(operationRules, raw, OpSum)

	inputs := make([]string, len(operationInputs[op]))
	copy(inputs, operationInputs[op])

	return Features{Tags: tags, Inputs: inputs, Variant: op}
}

func dataProcessingProgram(f Features) string {
	op := f.Variant
	if _, ok := operationInputs[op]; !ok {
		op = OpSum
	}

	var mutable []string
	if op == OpMedian {
		mutable = []string{"data"}
	}
	p := program{reads: readsFor(f.Inputs, dataTypes, mutable...)}

	switch op {
	case OpAverage:
		p.logic = append(p.logic, saturatingSum()...)
		p.logic = append(p.logic,
			"let count = data.len() as u64;",
			"let average = if count > 0 { (sum / count) as u32 } else { 0 };",
			"",
			"let is_valid = count > 0 && average == expected_avg;",
		)
		p.commits = []string{"count", "expected_avg"}
	case OpMedian:
		p.logic = append(p.logic,
			"data.sort_unstable();",
			"let len = data.len();",
			"let median = if len == 0 {",
			"    0",
			"} else if len % 2 == 0 {",
			"    // Even length: mean of the two middle elements",
			"    ((data[len / 2 - 1] as u64).saturating_add(data[len / 2] as u64) / 2) as u32",
			"} else {",
			"    data[len / 2]",
			"};",
			"let count = len as u32;",
			"",
			"let is_valid = count > 0 && median == expected_median;",
		)
		p.commits = []string{"count", "expected_median"}
	case OpMax:
		p.logic = append(p.logic,
			"let computed_max = data.iter().copied().max().unwrap_or(0);",
			"let count = data.len() as u32;",
			"",
			"let is_valid = count > 0 && computed_max == expected_max;",
		)
		p.commits = []string{"count", "expected_max"}
	case OpMin:
		p.logic = append(p.logic,
			"let computed_min = data.iter().copied().min().unwrap_or(0);",
			"let count = data.len() as u32;",
			"",
			"let is_valid = count > 0 && computed_min == expected_min;",
		)
		p.commits = []string{"count", "expected_min"}
	case OpCount:
		p.logic = append(p.logic,
			"let matched = data.iter().filter(|&&value| value > threshold).count() as u32;",
			"",
			"let is_valid = matched == expected_count;",
		)
		p.commits = []string{"threshold", "expected_count"}
	case OpFilter:
		p.logic = append(p.logic,
			"let matched = data",
			"    .iter()",
			"    .filter(|&&value| value >= min_value && value <= max_value)",
			"    .count() as u32;",
			"",
			"let is_valid = min_value <= max_value && matched == expected_count;",
		)
		p.commits = []string{"min_value", "max_value", "expected_count"}
	default:
		p.logic = append(p.logic, saturatingSum()...)
		p.logic = append(p.logic,
			"let count = data.len() as u32;",
			"",
			"let is_valid = sum == expected_sum;",
		)
		p.commits = []string{"count", "expected_sum"}
	}

	return p.render()
}

func saturatingSum() []string {
	return []string{
		"let mut sum = 0u64;",
		"for value in data.iter() {",
		"    sum = sum.saturating_add(*value as u64);",
		"}",
	}
}
