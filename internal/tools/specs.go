// Package tools - specs.go declares the tool schemas presented to the model.
package tools

import (
	"encoding/json"
	"fmt"

	"github.com/resumind/resumind/internal/llm"
	"github.com/resumind/resumind/internal/schemas"
)

var webSearchSpec = llm.ToolSpec{
	Name:        NameWebSearch,
	Description: "Flexible web search for specific information gaps. Use targeted, specific queries.",
	Parameters: []byte(`{
		"type": "object",
		"properties": {
			"query": {"type": "string", "description": "The search query"}
		},
		"required": ["query"]
	}`),
}

var discoverySearchSpec = llm.ToolSpec{
	Name:        NameCompanyDiscoverySearch,
	Description: "Multi-strategy search for the official website and basic company information. Always start discovery with this tool.",
	Parameters: []byte(`{
		"type": "object",
		"properties": {
			"company_name": {"type": "string", "description": "The company to discover"},
			"additional_context": {"type": "string", "description": "Job role or industry context, e.g. 'software engineering' or 'fintech'"}
		},
		"required": ["company_name"]
	}`),
}

var scrapePageSpec = llm.ToolSpec{
	Name:        NameScrapePage,
	Description: "Scrape a web page and summarize it with specific data points extracted and emphasized.",
	Parameters: []byte(`{
		"type": "object",
		"properties": {
			"url": {"type": "string", "description": "The URL of the web page to scrape"},
			"data_to_extract": {
				"type": "array",
				"items": {"type": "string"},
				"description": "Specific data points or questions to extract from the page"
			}
		},
		"required": ["url", "data_to_extract"]
	}`),
}

var researchDoneSpec = llm.ToolSpec{
	Name:        NameResearchDone,
	Description: "Signal research completion and return the findings. Required: this is the only way to return results.",
	Parameters: []byte(`{
		"type": "object",
		"properties": {
			"results": {
				"type": "object",
				"additionalProperties": {"type": "string"},
				"description": "Research findings keyed by the assigned category name"
			}
		},
		"required": ["results"]
	}`),
}

// discoveryDoneSpec embeds the discovered-company-profile schema as the
// payload so the model returns a complete structured profile.
func discoveryDoneSpec() llm.ToolSpec {
	var profileSchema json.RawMessage = schemas.MustGet(schemas.DiscoveredCompanyProfile)

	params, err := json.Marshal(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"discovery_results": profileSchema,
		},
		"required": []string{"discovery_results"},
	})
	if err != nil {
		panic(fmt.Sprintf("failed to build discovery_done schema: %v", err))
	}

	return llm.ToolSpec{
		Name:        NameDiscoveryDone,
		Description: "Signal discovery completion and return the structured company profile. Required: this is the only way to return findings.",
		Parameters:  params,
	}
}

// DiscoverySpecs returns the tool declarations for the company discovery loop.
func DiscoverySpecs() []llm.ToolSpec {
	return []llm.ToolSpec{discoverySearchSpec, webSearchSpec, discoveryDoneSpec()}
}

// ResearchSpecs returns the tool declarations for the research executor loop.
func ResearchSpecs() []llm.ToolSpec {
	return []llm.ToolSpec{webSearchSpec, scrapePageSpec, researchDoneSpec}
}
