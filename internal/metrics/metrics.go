package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymflex_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gymflex_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	BookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymflex_bookings_total",
			Help: "Total number of session bookings",
		},
		[]string{"status"},
	)

	BookingCancellationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gymflex_booking_cancellations_total",
			Help: "Total number of booking cancellations",
		},
	)

	CheckinTokensIssuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gymflex_checkin_tokens_issued_total",
			Help: "Total number of check-in tokens issued to members",
		},
	)

	CheckinScansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymflex_checkin_scans_total",
			Help: "Total number of check-in scans by validation status",
		},
		[]string{"status"},
	)

	CheckinChecksumFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gymflex_checkin_checksum_failures_total",
			Help: "Scanned payloads that decoded but failed checksum verification",
		},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymflex_emails_sent_total",
			Help: "Total number of emails sent",
		},
		[]string{"type", "status"},
	)

	EmailQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gymflex_email_queue_length",
			Help: "Current length of email queue",
		},
	)

	WalletTopUpsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gymflex_wallet_topups_total",
			Help: "Total number of wallet top-ups",
		},
	)

	GroupMessagesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gymflex_group_messages_total",
			Help: "Total number of group messages posted",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordBooking(status string) {
	BookingsTotal.WithLabelValues(status).Inc()
}

func RecordBookingCancellation() {
	BookingCancellationsTotal.Inc()
}

func RecordTokenIssued() {
	CheckinTokensIssuedTotal.Inc()
}

func RecordScan(status string) {
	CheckinScansTotal.WithLabelValues(status).Inc()
}

func RecordChecksumFailure() {
	CheckinChecksumFailuresTotal.Inc()
}

func RecordEmail(emailType, status string) {
	EmailsSentTotal.WithLabelValues(emailType, status).Inc()
}

func RecordWalletTopUp() {
	WalletTopUpsTotal.Inc()
}

func RecordGroupMessage() {
	GroupMessagesTotal.Inc()
}
