package enum

type EntityType string

const (
	INBOX EntityType = "INBOX"
)

func (entityType EntityType) String() string {
	return string(entityType)
}
