package verifier

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/c360studio/specverify/diagnose"
)

func TestPublisherNilIsNoOp(t *testing.T) {
	var p *Publisher
	assert.NoError(t, p.Publish(&diagnose.Report{RunID: "r1"}))
}

func TestPublisherNilConnIsNoOp(t *testing.T) {
	p := NewPublisher(nil, "", nil)
	assert.NoError(t, p.Publish(&diagnose.Report{RunID: "r1"}))
}

func TestPublisherSubjectDefault(t *testing.T) {
	p := NewPublisher(nil, "", nil)
	assert.Equal(t, ReportSubject, p.subject)

	p = NewPublisher(nil, "ci.verification", nil)
	assert.Equal(t, "ci.verification", p.subject)
}
