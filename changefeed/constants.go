package changefeed

// DefaultSubjectPrefix is the NATS subject prefix change events are
// published under when none is configured.
const DefaultSubjectPrefix = "pushhub.changes"

// entitySubject returns the wildcard subject entity-change events arrive on.
// The message payload carries the changed object's identifier.
func entitySubject(prefix string) string {
	return prefix + ".entity"
}

// masterSubject returns the wildcard subject master-change events arrive on.
// The message payload carries the master type.
func masterSubject(prefix string) string {
	return prefix + ".master"
}
