package workflow

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescribeFailure(t *testing.T) {
	assert.Equal(t, "", DescribeFailure(nil))
	assert.Equal(t, MsgQuotaExceeded, DescribeFailure(errors.New("Quota exceeded for requests")))
	assert.Equal(t, MsgInvalidAPIKey, DescribeFailure(errors.New("API KEY NOT VALID")))
	assert.Equal(t, "Failed to generate Terraform code. boom", DescribeFailure(errors.New("boom")))
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, "bad", UserMessage(fmt.Errorf("wrap: %w", &ValidationError{Message: "bad"})))
	assert.Equal(t, "shown", UserMessage(&RequestFailure{Message: "shown", Err: errors.New("x")}))
	assert.Equal(t, "Failed to generate Terraform code. raw", UserMessage(errors.New("raw")))
}
