package phonelookup

import "eflyt-phone-lookup/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"maxRecords": {
				Type:        "integer",
				Description: "Upper bound on records processed in this run",
				Minimum:     validation.Float64Ptr(1),
			},
		},
		AdditionalProperties: true,
	}
}

func GetOutputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"lookupStatus", "lookupRunId"},
		Properties: map[string]validation.Property{
			"lookupStatus": {
				Type: "string",
				Enum: []string{"completed", "no_work", "failed"},
			},
			"lookupRunId":     {Type: "string"},
			"lookupRequester": {Type: "string"},
			"lookupAttempts":  {Type: "integer", Minimum: validation.Float64Ptr(0)},
			"lookupProcessed": {Type: "integer", Minimum: validation.Float64Ptr(0)},
			"lookupFound":     {Type: "integer", Minimum: validation.Float64Ptr(0)},
			"lookupNotFound":  {Type: "integer", Minimum: validation.Float64Ptr(0)},
			"lookupFailed":    {Type: "integer", Minimum: validation.Float64Ptr(0)},
			"lookupRemaining": {Type: "integer", Minimum: validation.Float64Ptr(0)},
		},
		AdditionalProperties: false,
	}
}
