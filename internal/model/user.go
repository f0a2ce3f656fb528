package model

// User -- участник чата VK, известный боту.
// TotalPoints копятся между играми (глобальная таблица лидеров).
type User struct {
	VkID        int64
	Name        string
	LastName    string
	TotalPoints int64
}

// FullName returns "Имя Фамилия" for outbound messages.
func (u User) FullName() string {
	return u.Name + " " + u.LastName
}
