package events

const activityCreatedSchema = `{
  "type": "object",
  "title": "ActivityCreated",
  "properties": {
    "event_id": {"type": "string"},
    "activity_id": {"type": "integer"},
    "owner_login": {"type": "string"},
    "title": {"type": "string"},
    "date": {"type": "string", "format": "date-time"},
    "tags": {"type": "array", "items": {"type": "string"}},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["event_id", "activity_id", "owner_login", "title", "date", "occurred_at"],
  "additionalProperties": false
}`

const activityDeletedSchema = `{
  "type": "object",
  "title": "ActivityDeleted",
  "properties": {
    "event_id": {"type": "string"},
    "activity_id": {"type": "integer"},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["event_id", "activity_id", "occurred_at"],
  "additionalProperties": false
}`

const participantJoinedSchema = `{
  "type": "object",
  "title": "ParticipantJoined",
  "properties": {
    "event_id": {"type": "string"},
    "participant_id": {"type": "integer"},
    "activity_id": {"type": "integer"},
    "user_login": {"type": "string"},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["event_id", "participant_id", "activity_id", "user_login", "occurred_at"],
  "additionalProperties": false
}`

const meetCreatedSchema = `{
  "type": "object",
  "title": "MeetCreated",
  "properties": {
    "event_id": {"type": "string"},
    "meet_id": {"type": "integer"},
    "owner_login": {"type": "string"},
    "is_enabled": {"type": "boolean"},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["event_id", "meet_id", "owner_login", "is_enabled", "occurred_at"],
  "additionalProperties": false
}`

const requestCreatedSchema = `{
  "type": "object",
  "title": "RequestCreated",
  "properties": {
    "event_id": {"type": "string"},
    "request_id": {"type": "integer"},
    "meet_id": {"type": "integer"},
    "requester_login": {"type": "string"},
    "owner_login": {"type": "string"},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["event_id", "request_id", "meet_id", "requester_login", "owner_login", "occurred_at"],
  "additionalProperties": false
}`

const conversationCreatedSchema = `{
  "type": "object",
  "title": "ConversationCreated",
  "properties": {
    "event_id": {"type": "string"},
    "conversation_id": {"type": "integer"},
    "user_logins": {"type": "array", "items": {"type": "string"}, "minItems": 2, "maxItems": 2},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["event_id", "conversation_id", "user_logins", "occurred_at"],
  "additionalProperties": false
}`
