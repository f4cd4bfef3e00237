package testdata

type Membership struct {
	GroupID int64 `db:"group_id,pk"`
	UserID  int64 `db:"user_id,primaryKey"`
}
