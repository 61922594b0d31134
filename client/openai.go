package client

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/carebridge/compliance-service/view"
	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	log "github.com/sirupsen/logrus"
)

type LLMClient interface {
	ClassifyIncident(ctx context.Context, description string) (*view.AIIncidentClassification, error)
	UpdateClassifyPrompt(prompt string)
	UpdateModel(model string) error
}

func NewOpenaiClient(apiKey string, model string, proxy string) (LLMClient, error) {
	var opts []option.RequestOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	} else {
		return nil, errors.New("openai: api key is required")
	}

	if proxy != "" {
		opts = append(opts, option.WithBaseURL(proxy))
	}

	var openAIModel openai.ChatModel
	if model != "" {
		openAIModel = model
	} else {
		openAIModel = openai.ChatModelGPT5
	}

	tr := http.Transport{
		TLSClientConfig:       &tls.Config{InsecureSkipVerify: true},
		TLSHandshakeTimeout:   time.Second * 1800,
		IdleConnTimeout:       time.Second * 1800,
		ResponseHeaderTimeout: time.Second * 1800,
		ExpectContinueTimeout: time.Second * 1800,
	}
	cl := http.Client{Transport: &tr, Timeout: time.Second * 1800}

	opts = append(opts, option.WithHTTPClient(&cl))

	return &oaiClientImpl{
		client:         openai.NewClient(opts...),
		model:          openAIModel,
		classifyPrompt: defaultClassifyIncidentPrompt,
	}, nil
}

type oaiClientImpl struct {
	client openai.Client

	mutex          sync.RWMutex
	model          openai.ChatModel
	classifyPrompt string
}

var IncidentClassificationResponseSchema = GenerateSchema[view.AIIncidentClassification]()

const defaultClassifyIncidentPrompt = `You are a patient safety officer classifying homecare incident reports
according to the DOH patient safety taxonomy.

Assign exactly one category:
- patient_care: falls, pressure injuries, missed visits, deterioration not escalated
- medication_iv_fluids: wrong drug/dose/route/time, infusion pump events, missed doses
- documentation: missing, late, unsigned or contradictory clinical documentation
- clinical_process: assessment, care planning or handover process failures
- facility_environment: equipment failure, supply issues, home environment hazards
- other: anything that does not fit the categories above

Also assign a short free-text subcategory, a severity (low, medium, high, catastrophic)
based on actual or potential patient harm, and a one-sentence rationale.
Respond in json format. Avoid any other output.`

func (l *oaiClientImpl) ClassifyIncident(ctx context.Context, description string) (*view.AIIncidentClassification, error) {
	start := time.Now()
	l.mutex.RLock()
	prompt := l.classifyPrompt
	model := l.model
	l.mutex.RUnlock()

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(prompt),
		openai.UserMessage(description),
	}

	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:   "incident_classification",
		Schema: IncidentClassificationResponseSchema,
		Strict: openai.Bool(true),
	}

	log.Infof("run incident classification with openai client")

	chat, err := l.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: messages,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: schemaParam},
		},
		Model: model,
	})
	log.Infof("finished incident classification with openai client, it took %dms", time.Since(start).Milliseconds())
	if err != nil {
		return nil, err
	}

	var result view.AIIncidentClassification
	err = json.Unmarshal([]byte(chat.Choices[0].Message.Content), &result)
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func GenerateSchema[T any]() interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)
	return schema
}

func (l *oaiClientImpl) UpdateClassifyPrompt(prompt string) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.classifyPrompt = prompt
}

func (l *oaiClientImpl) UpdateModel(model string) error {
	if model == "" {
		return errors.New("openai: model is required")
	}
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.model = model
	return nil
}
