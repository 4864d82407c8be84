package model

import "github.com/google/uuid"

// Session - единственная "текущая картинка" приложения.
// Создается пустой, целиком заменяется при успешной загрузке.
type Session struct {
	ID       uuid.UUID
	Source   string      // путь к исходнику, может быть пустым для загрузки из потока
	Name     string      // имя файла для отображения
	Original ImageBuffer // исходное разрешение
	Image    ImageBuffer // рабочая копия (превью): ее показываем, ватермаркаем и сохраняем
	Marks    int         // сколько раз наложен ватермарк
	State    State
	SavedTo  string
}

func NewSession() *Session {
	return &Session{State: StateEmpty}
}

func (s *Session) Loaded() bool {
	return s != nil && s.Image != nil
}

// Actions lists what the UI may enable right now.
func (s *Session) Actions() []Action {
	if !s.Loaded() {
		return []Action{ActOpen}
	}
	return []Action{ActOpen, ActWatermark, ActSave, ActExport}
}

func (s *Session) Info() SessionInfo {
	info := SessionInfo{State: StateEmpty, Actions: s.Actions()}
	if !s.Loaded() {
		return info
	}

	info.ID = s.ID.String()
	info.State = s.State
	info.Name = s.Name
	info.Source = s.Source
	info.Width = s.Image.Bounds().Dx()
	info.Height = s.Image.Bounds().Dy()
	info.Marks = s.Marks
	info.SavedTo = s.SavedTo
	return info
}
