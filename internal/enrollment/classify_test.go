package enrollment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifySubmission(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		rule      string
		action    action
		requestID string
	}{
		{
			name:   "denied",
			body:   deniedPage,
			rule:   "denied",
			action: actionDenied,
		},
		{
			name:   "denied wins over retrieval link",
			body:   `denied by policy module <a href="certnew.cer?ReqID=5&Enc=b64">`,
			rule:   "denied",
			action: actionDenied,
		},
		{
			name:      "pending with id",
			body:      pendingPage,
			rule:      "pending",
			action:    actionPending,
			requestID: "12345",
		},
		{
			name:   "pending without id",
			body:   "Your certificate request has been received. Your Request Id is unknown.",
			rule:   "pending",
			action: actionFailed,
		},
		{
			name:      "pending wins over retrieval link",
			body:      `Your certificate request has been received. Your Request Id is 8. certnew.cer?ReqID=9&Enc=b64`,
			rule:      "pending",
			action:    actionPending,
			requestID: "8",
		},
		{
			name:      "retrieval link",
			body:      issuedPage42,
			rule:      "retrieval link",
			action:    actionRetrieve,
			requestID: "42",
		},
		{
			name:   "link without trailing parameters",
			body:   `certnew.cer?ReqID=42`,
			rule:   "retrieval link",
			action: actionFailed,
		},
		{
			name:   "empty body",
			body:   "",
			rule:   "retrieval link",
			action: actionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, rule := classify(submissionRules, tt.body)
			assert.Equal(t, tt.rule, rule)
			assert.Equal(t, tt.action, v.action)
			assert.Equal(t, tt.requestID, v.requestID)
			if tt.action == actionFailed {
				assert.NotEmpty(t, v.reason)
			}
		})
	}
}

func TestClassifyPoll(t *testing.T) {
	tests := []struct {
		body   string
		action action
	}{
		{body: deniedPage, action: actionDenied},
		{body: "The request 7 has been denied by the CA", action: actionDenied},
		{body: pendingPage, action: actionPending},
		{body: "Your certificate request is still pending.", action: actionPending},
		{body: "<html>Error</html>", action: actionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			v, _ := classify(pollRules, tt.body)
			assert.Equal(t, tt.action, v.action)
		})
	}
}

func TestStripPEM(t *testing.T) {
	in := "-----BEGIN CERTIFICATE REQUEST-----\nMIIB\r\n  abcd\n\tef==\n-----END CERTIFICATE REQUEST-----\n"
	assert.Equal(t, "MIIBabcdef==", stripPEM(in))
	assert.Equal(t, "MIIB", stripPEM("-----BEGIN NEW CERTIFICATE REQUEST----- MIIB -----END NEW CERTIFICATE REQUEST-----"))
}

func TestOutcomeErr(t *testing.T) {
	assert.NoError(t, Outcome{Kind: OutcomeIssued}.Err())
	assert.ErrorIs(t, Outcome{Kind: OutcomeDenied, Message: "no"}.Err(), ErrDenied)
	assert.ErrorIs(t, Outcome{Kind: OutcomePending, RequestID: "3"}.Err(), ErrPending)
	assert.Contains(t, Outcome{Kind: OutcomePending, RequestID: "3"}.Err().Error(), "3")
	assert.ErrorIs(t, Outcome{Kind: OutcomeRetrievalFailed}.Err(), ErrRetrieval)
	assert.Error(t, Outcome{}.Err())
}

func TestParseEncoding(t *testing.T) {
	enc, err := ParseEncoding("")
	assert.NoError(t, err)
	assert.Equal(t, EncodingBase64, enc)

	enc, err = ParseEncoding("bin")
	assert.NoError(t, err)
	assert.Equal(t, EncodingBinary, enc)

	_, err = ParseEncoding("der")
	assert.Error(t, err)
}
