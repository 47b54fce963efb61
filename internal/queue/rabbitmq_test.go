package queue

import (
	"context"
	"testing"
	"time"
)

func testQueue(delayed bool) *RabbitMQQueue {
	return &RabbitMQQueue{
		queueName:           DefaultQueueName,
		dlqName:             DefaultDLQName,
		exchangeName:        DefaultExchangeName,
		delayedExchangeName: DefaultDelayedExchangeName,
		delayedAvailable:    delayed,
	}
}

func TestRabbitMQQueue_Publishing(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		delayed      bool
		notBefore    *time.Time
		notAfter     *time.Time
		wantExchange string
		wantDelay    any
		wantExpiry   string
	}{
		{
			name:         "immediate job",
			delayed:      true,
			wantExchange: DefaultExchangeName,
		},
		{
			name:         "future job uses delayed exchange",
			delayed:      true,
			notBefore:    timePtr(now.Add(5 * time.Second)),
			wantExchange: DefaultDelayedExchangeName,
			wantDelay:    int64(5000),
		},
		{
			name:         "future job without plugin falls back",
			delayed:      false,
			notBefore:    timePtr(now.Add(5 * time.Second)),
			wantExchange: DefaultExchangeName,
		},
		{
			name:         "past not-before is immediate",
			delayed:      true,
			notBefore:    timePtr(now.Add(-time.Second)),
			wantExchange: DefaultExchangeName,
		},
		{
			name:         "not-after sets expiration",
			delayed:      true,
			notAfter:     timePtr(now.Add(time.Minute)),
			wantExchange: DefaultExchangeName,
			wantExpiry:   "60000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			job := NewJob(JobTypeRetrainModel, nil)
			job.NotBefore = tt.notBefore
			job.NotAfter = tt.notAfter

			exchange, msg, err := testQueue(tt.delayed).publishing(job, now)
			if err != nil {
				t.Fatalf("publishing() error = %v", err)
			}
			if exchange != tt.wantExchange {
				t.Errorf("exchange = %s, want %s", exchange, tt.wantExchange)
			}
			if msg.Expiration != tt.wantExpiry {
				t.Errorf("expiration = %q, want %q", msg.Expiration, tt.wantExpiry)
			}
			if tt.wantDelay != nil {
				if got := msg.Headers["x-delay"]; got != tt.wantDelay {
					t.Errorf("x-delay = %v, want %v", got, tt.wantDelay)
				}
			} else if msg.Headers != nil {
				t.Errorf("unexpected headers %v", msg.Headers)
			}
			if msg.MessageId != job.ID.String() {
				t.Errorf("message id = %s, want %s", msg.MessageId, job.ID)
			}
			if msg.Type != string(JobTypeRetrainModel) {
				t.Errorf("type = %s, want %s", msg.Type, JobTypeRetrainModel)
			}
		})
	}
}

func TestRabbitMQQueue_HealthCheckWithoutConnection(t *testing.T) {
	t.Parallel()

	if err := testQueue(false).HealthCheck(context.Background()); err == nil {
		t.Error("expected health check to fail without a connection")
	}
}
