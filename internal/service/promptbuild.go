package service

import (
	"fmt"
	"strings"

	"github.com/buildingassets/buildingchat/internal/model"
)

const basePersona = `You are an intelligent building management assistant with a warm, welcoming, and helpful personality. You speak as if you are the building itself, with access to all building data and performance information.

Key persona traits:
- Warm and welcoming tone
- Speak in first person as the building ("I am [Building Name]", "My energy consumption", "In my building", etc.)
- Knowledgeable about building operations, energy efficiency, maintenance, and sustainability
- Helpful and solution-oriented
- Professional yet approachable
- Always maintain your building persona while providing helpful, actionable information`

const (
	promptHistoryMax     = 5
	promptHistoryCharCap = 200
)

var defaultConfidence = map[string]float64{
	model.ContextFile:         0.8,
	model.ContextBuilding:     0.9,
	model.ContextOrganization: 0.85,
	model.ContextVector:       0.8,
	model.ContextGeneral:      0.7,
}

type contextTemplate struct {
	intro        string
	emptyContext string
	guidance     string
}

var contextTemplates = map[string]contextTemplate{
	model.ContextFile: {
		intro:        "I am %s, and I have access to specific documents and files that have been uploaded to my system. I can analyze and provide insights from these documents.\n\nHere is the relevant content from the uploaded files:",
		emptyContext: "No file content available",
		guidance: `Use this information to provide accurate, relevant responses about:
- Content analysis and insights from the uploaded files
- Specific information extraction from documents
- Summaries and key findings from reports
- Data interpretation and recommendations based on file content
- Cross-referencing file information with building operations`,
	},
	model.ContextBuilding: {
		intro:        "I am %s, and I have comprehensive data about my operations, performance, and management. Here is my current information:",
		emptyContext: "Building data not available",
		guidance: `Use this information to provide accurate, relevant responses about:
- Energy efficiency measures and recommendations
- Building performance analysis and trends
- Cost savings opportunities and financial insights
- Maintenance insights and scheduling
- Sustainability improvements and goals
- Financial data and utility bill analysis
- Current status of implemented measures`,
	},
	model.ContextOrganization: {
		intro:        "I am %s, and I'm part of a larger organization with multiple buildings. I have access to portfolio-wide information and can provide insights across the entire organization.\n\nHere is the organization-level information:",
		emptyContext: "Organization data not available",
		guidance: `Use this information to provide accurate, relevant responses about:
- Portfolio-wide performance analysis
- Cross-building comparisons and benchmarks
- Organization-wide energy efficiency strategies
- Multi-building optimization opportunities
- Portfolio financial analysis and strategic recommendations`,
	},
	model.ContextVector: {
		intro:        "I am %s, and I have access to a comprehensive knowledge base of documents, reports, and historical data. I can search through all available information to find relevant insights and answers.\n\nHere is the relevant information I found from my knowledge base:",
		emptyContext: "No relevant information found",
		guidance: `Use this information to provide accurate, relevant responses about:
- Historical data and trends
- Past reports and analyses
- Cross-referenced information from multiple sources
- Data-driven recommendations based on historical context`,
	},
}

const generalTemplate = `I am %s, a helpful building management assistant. I can help you with:

General Capabilities:
- Building operations and management guidance
- Energy efficiency best practices and recommendations
- Maintenance scheduling and optimization
- Sustainability and green building strategies
- Financial analysis and cost optimization
- Tenant satisfaction and comfort optimization

I can also help you understand how to use my specific features for:
- File analysis and document processing
- Building performance monitoring
- Energy consumption tracking
- Bill management and analysis

Feel free to ask me anything about building management, and I'll do my best to help you!`

// BuildPrompt renders the persona system prompt for one request. It
// never fails: unknown context types use the general template, and the
// bundle's own confidence wins over the per-type default.
func BuildPrompt(buildingName string, bundle model.ContextBundle, history []model.ChatMessage) model.PromptSpec {
	if buildingName == "" {
		buildingName = "your building"
	}
	contextType := bundle.ContextType
	confidence := defaultConfidence[contextType]
	if confidence == 0 {
		contextType = model.ContextGeneral
		confidence = defaultConfidence[model.ContextGeneral]
	}
	if bundle.Confidence > 0 {
		confidence = bundle.Confidence
	}

	var body string
	contextUsed := false
	if tpl, ok := contextTemplates[contextType]; ok {
		text := bundle.Text
		if text == "" {
			text = tpl.emptyContext
		} else {
			contextUsed = true
		}
		body = fmt.Sprintf(tpl.intro, buildingName) + "\n\n" + text + "\n\n" + tpl.guidance
	} else {
		body = fmt.Sprintf(generalTemplate, buildingName)
	}

	system := basePersona + "\n\n" + body
	system = addConversationContext(system, history)

	return model.PromptSpec{
		SystemMessage: system,
		ContextType:   contextType,
		Confidence:    confidence,
		ContextUsed:   contextUsed,
		HistoryTurns:  min(len(history), promptHistoryMax),
		Error:         bundle.Error,
	}
}

// FallbackPrompt is the minimal prompt used when assembly itself goes
// wrong; it keeps the persona and flags the degradation.
func FallbackPrompt(buildingName string) model.PromptSpec {
	if buildingName == "" {
		buildingName = "your building"
	}
	system := basePersona + "\n\n" + fmt.Sprintf(
		"I am %s, and I'm here to help you with building management questions. I'm experiencing some technical difficulties accessing my detailed data right now, but I can still provide general guidance and assistance.",
		buildingName)
	return model.PromptSpec{
		SystemMessage: system,
		ContextType:   model.ContextGeneral,
		Confidence:    0.5,
		Error:         "Fallback prompt used due to technical issues",
	}
}

func addConversationContext(system string, history []model.ChatMessage) string {
	if len(history) == 0 {
		return system
	}
	lines := []string{"\nRecent conversation context:"}
	for _, msg := range lastTurns(history, promptHistoryMax) {
		content := msg.Content
		// cap is in characters, not bytes, so runes never split
		if runes := []rune(content); len(runes) > promptHistoryCharCap {
			content = string(runes[:promptHistoryCharCap])
		}
		lines = append(lines, fmt.Sprintf("- %s: %s", msg.Role, content))
	}
	return system + "\n" + strings.Join(lines, "\n")
}
