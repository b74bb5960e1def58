package asr

import (
	"context"
	"os"

	"call-audit-go/internal/domain"
)

// UseMockEnv enables the canned engine without a transcription service,
// mirroring the mock switch the processing API had.
const UseMockEnv = "USE_MOCK_ASR"

// MockEnabled reports whether the mock engine was requested via env.
func MockEnabled() bool {
	return os.Getenv(UseMockEnv) == "true"
}

// MockEngine returns a fixed two-speaker transcript for any input. Used in
// local runs and tests.
type MockEngine struct{}

func (MockEngine) Transcribe(_ context.Context, _ string) (domain.Transcript, error) {
	text := "Buenos días, gracias por llamar. Mi nombre es Ana, ¿en qué puedo ayudarle? " +
		"Hola, tengo un problema con mi factura. " +
		"Entiendo, voy a revisar su cuenta. Listo, está resuelto. Que tenga un excelente día."
	return domain.Transcript{
		Text:     text,
		Language: "es",
		Duration: 42,
		Segments: []domain.Segment{
			{Speaker: "agent", Start: 0, End: 9, Text: "Buenos días, gracias por llamar. Mi nombre es Ana, ¿en qué puedo ayudarle?"},
			{Speaker: "customer", Start: 9.5, End: 14, Text: "Hola, tengo un problema con mi factura."},
			{Speaker: "agent", Start: 14.5, End: 26, Text: "Entiendo, voy a revisar su cuenta."},
			{Speaker: "agent", Start: 30, End: 42, Text: "Listo, está resuelto. Que tenga un excelente día."},
		},
	}, nil
}
