package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/felixbrock/careerprep/internal/domain"
	"github.com/google/uuid"
)

// GuidanceRepo talks to the remote guidance endpoint.
type GuidanceRepo struct {
	BaseHeaders []string
	BaseUrl     string
	Client      *http.Client
}

func (r GuidanceRepo) Generate(ctx context.Context, input domain.FormInput) (*domain.GuidanceResult, error) {
	body, err := json.Marshal(input)

	if err != nil {
		return nil, err
	}

	headers := make([]string, 0, len(r.BaseHeaders)+2)
	headers = append(headers, r.BaseHeaders...)
	headers = append(headers,
		"Content-Type:application/json",
		fmt.Sprintf("X-Request-Id:%s", uuid.New().String()))

	result, err := request[domain.GuidanceResult](ctx, reqConfig{
		Method:  http.MethodPost,
		Url:     fmt.Sprintf("%s/generate", strings.TrimSuffix(r.BaseUrl, "/")),
		Headers: headers,
		Body:    body,
		Client:  r.Client})

	if err != nil {
		return nil, err
	}

	err = result.Validate()

	if err != nil {
		return nil, fmt.Errorf("incomplete guidance response: %w", err)
	}

	return result, nil
}
