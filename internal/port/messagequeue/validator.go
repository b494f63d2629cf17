package messagequeue

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Validate checks whether data is valid JSON conforming to the schema
// associated with the given subject. Unknown subjects pass validation.
func Validate(subject string, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON on subject %s", subject)
	}

	if !strings.HasPrefix(subject, SubjectEventsPrefix+".") {
		return nil
	}

	var p ChangeRecordPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("schema validation failed for %s: %w", subject, err)
	}
	if !p.Kind.Valid() {
		return fmt.Errorf("schema validation failed for %s: unknown kind %q", subject, p.Kind)
	}
	if subject != SubjectFor(p.Kind) {
		return fmt.Errorf("schema validation failed for %s: kind %q does not match subject", subject, p.Kind)
	}
	if p.EventID == "" {
		return fmt.Errorf("schema validation failed for %s: event_id is required", subject)
	}
	return nil
}
