package events

// Metadata describes how an event type is routed and which JSON schema it is registered under.
type Metadata struct {
	Topic         string
	SchemaSubject string
	Schema        string
}

var catalog = map[string]Metadata{
	TypeActivityCreated: {
		Topic:         "activity_events",
		SchemaSubject: "activity_events-activity_created",
		Schema:        activityCreatedSchema,
	},
	TypeActivityDeleted: {
		Topic:         "activity_events",
		SchemaSubject: "activity_events-activity_deleted",
		Schema:        activityDeletedSchema,
	},
	TypeParticipantJoined: {
		Topic:         "activity_events",
		SchemaSubject: "activity_events-participant_joined",
		Schema:        participantJoinedSchema,
	},
	TypeMeetCreated: {
		Topic:         "meet_events",
		SchemaSubject: "meet_events-meet_created",
		Schema:        meetCreatedSchema,
	},
	TypeRequestCreated: {
		Topic:         "meet_events",
		SchemaSubject: "meet_events-request_created",
		Schema:        requestCreatedSchema,
	},
	TypeConversationCreated: {
		Topic:         "conversation_events",
		SchemaSubject: "conversation_events-conversation_created",
		Schema:        conversationCreatedSchema,
	},
}

// Lookup returns routing metadata for an event type.
func Lookup(eventType string) (Metadata, bool) {
	meta, ok := catalog[eventType]
	return meta, ok
}

// Types lists every event type in a fixed order.
func Types() []string {
	return []string{TypeActivityCreated, TypeActivityDeleted, TypeParticipantJoined, TypeMeetCreated, TypeRequestCreated, TypeConversationCreated}
}

// Topics lists every topic events are published to, without duplicates.
func Topics() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, eventType := range Types() {
		topic := catalog[eventType].Topic
		if _, ok := seen[topic]; ok {
			continue
		}
		seen[topic] = struct{}{}
		out = append(out, topic)
	}
	return out
}
