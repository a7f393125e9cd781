package annotation

// Patch is a partial update. Nil fields are left untouched; the store applies
// a patch through Update, which preserves id, type, and created_at and stamps
// updated_at.
type Patch struct {
	Color     *string
	Thickness *int
	Label     *string
	Visible   *bool
	Locked    *bool

	Price *float64
	Time  *TimeValue
	Start *DomainPoint
	End   *DomainPoint

	ExtendLeft  *bool
	ExtendRight *bool
	LineStyle   *LineStyle

	FillOpacity *float64
	BorderStyle *LineStyle

	Levels          *[]float64
	ShowExtensions  *bool
	ExtensionLevels *[]float64
	ShowPrices      *bool
	LevelColors     *map[string]string

	Point     *DomainPoint
	Direction *ArrowDirection
	Size      *ArrowSize

	Text              *string
	FontSize          *int
	BackgroundColor   *string
	BackgroundOpacity *float64
}

func (p Patch) apply(a *Annotation) {
	if p.Color != nil {
		a.Color = *p.Color
	}
	if p.Thickness != nil {
		a.Thickness = *p.Thickness
	}
	if p.Label != nil {
		a.Label = *p.Label
	}
	if p.Visible != nil {
		a.Visible = *p.Visible
	}
	if p.Locked != nil {
		a.Locked = *p.Locked
	}
	if p.Price != nil {
		a.Price = *p.Price
	}
	if p.Time != nil {
		a.Time = *p.Time
	}
	if p.Start != nil {
		a.Start = *p.Start
	}
	if p.End != nil {
		a.End = *p.End
	}
	if p.ExtendLeft != nil {
		a.ExtendLeft = *p.ExtendLeft
	}
	if p.ExtendRight != nil {
		a.ExtendRight = *p.ExtendRight
	}
	if p.LineStyle != nil {
		a.LineStyle = *p.LineStyle
	}
	if p.FillOpacity != nil {
		a.FillOpacity = *p.FillOpacity
	}
	if p.BorderStyle != nil {
		a.BorderStyle = *p.BorderStyle
	}
	if p.Levels != nil {
		a.Levels = append([]float64(nil), (*p.Levels)...)
	}
	if p.ShowExtensions != nil {
		a.ShowExtensions = *p.ShowExtensions
	}
	if p.ExtensionLevels != nil {
		a.ExtensionLevels = append([]float64(nil), (*p.ExtensionLevels)...)
	}
	if p.ShowPrices != nil {
		a.ShowPrices = *p.ShowPrices
	}
	if p.LevelColors != nil {
		colors := make(map[string]string, len(*p.LevelColors))
		for k, v := range *p.LevelColors {
			colors[k] = v
		}
		a.LevelColors = colors
	}
	if p.Point != nil {
		a.Point = *p.Point
	}
	if p.Direction != nil {
		a.Direction = *p.Direction
	}
	if p.Size != nil {
		a.Size = *p.Size
	}
	if p.Text != nil {
		a.Text = *p.Text
	}
	if p.FontSize != nil {
		a.FontSize = *p.FontSize
	}
	if p.BackgroundColor != nil {
		a.BackgroundColor = *p.BackgroundColor
	}
	if p.BackgroundOpacity != nil {
		a.BackgroundOpacity = *p.BackgroundOpacity
	}
}

// Ptr is a convenience for building patches from literals.
func Ptr[T any](v T) *T {
	return &v
}
