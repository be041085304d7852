package secrets

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/client"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/aws/aws-sdk-go/service/secretsmanager/secretsmanageriface"
	"github.com/danthegoodman1/contractors/utils"
	"github.com/rs/zerolog"
)

var (
	ErrNoSecretString = utils.PermError("secret has no string value")
	ErrMissingField   = utils.PermError("secret is missing field")
)

type Store struct {
	client secretsmanageriface.SecretsManagerAPI
}

func NewStore(sess client.ConfigProvider, region string) *Store {
	return &Store{
		client: secretsmanager.New(sess, aws.NewConfig().WithRegion(region)),
	}
}

func NewStoreWithClient(c secretsmanageriface.SecretsManagerAPI) *Store {
	return &Store{client: c}
}

// GetSecret returns the current string value of a secret.
func (s *Store) GetSecret(ctx context.Context, secretID string) (string, error) {
	out, err := s.client.GetSecretValueWithContext(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		return "", fmt.Errorf("error in GetSecretValueWithContext: %w", err)
	}
	if out.SecretString == nil {
		return "", ErrNoSecretString
	}
	zerolog.Ctx(ctx).Debug().Str("secretName", aws.StringValue(out.Name)).Msg("fetched secret")
	return *out.SecretString, nil
}

// GetJSONField reads a secret stored as a JSON object and returns one string field.
func (s *Store) GetJSONField(ctx context.Context, secretID, field string) (string, error) {
	raw, err := s.GetSecret(ctx, secretID)
	if err != nil {
		return "", err
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return "", fmt.Errorf("error in json.Unmarshal: %w", err)
	}
	v, ok := fields[field].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("%s: %w", field, ErrMissingField)
	}
	return v, nil
}
