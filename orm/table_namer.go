package orm

// TableNamer can be implemented by entity types to attach an explicit
// table name to the type itself.
type TableNamer interface {
	TableName() string
}

// ResolveTableName returns the table name declared by T.
// If T implements TableNamer (value or pointer receiver), that name is used;
// otherwise fallback is returned.
func ResolveTableName[T any](fallback string) string {
	var zero T
	if tn, ok := any(&zero).(TableNamer); ok {
		if name := tn.TableName(); name != "" {
			return name
		}
	}
	return fallback
}
