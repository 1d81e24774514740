package aws

import (
	"context"
	"errors"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSESAPI struct {
	mock.Mock
}

func (m *MockSESAPI) SendRawEmail(ctx context.Context, params *ses.SendRawEmailInput, optFns ...func(*ses.Options)) (*ses.SendRawEmailOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ses.SendRawEmailOutput), args.Error(1)
}

func TestSESClient_SendRaw(t *testing.T) {
	api := new(MockSESAPI)
	raw := []byte("From: itk-rpa@mkb.aarhus.dk\r\n\r\nbody")

	api.On("SendRawEmail", mock.Anything, mock.MatchedBy(func(in *ses.SendRawEmailInput) bool {
		return awssdk.ToString(in.Source) == "itk-rpa@mkb.aarhus.dk" &&
			len(in.Destinations) == 1 && in.Destinations[0] == "anna@aarhus.dk" &&
			string(in.RawMessage.Data) == string(raw)
	})).Return(&ses.SendRawEmailOutput{MessageId: awssdk.String("ses-1")}, nil).Once()

	id, err := NewSESClientWithAPI(api).SendRaw(context.Background(), "itk-rpa@mkb.aarhus.dk", []string{"anna@aarhus.dk"}, raw)
	require.NoError(t, err)
	assert.Equal(t, "ses-1", id)
	api.AssertExpectations(t)
}

func TestSESClient_SendRawError(t *testing.T) {
	api := new(MockSESAPI)
	api.On("SendRawEmail", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

	_, err := NewSESClientWithAPI(api).SendRaw(context.Background(), "a@b", []string{"c@d"}, []byte("x"))
	assert.EqualError(t, err, "throttled")
}
