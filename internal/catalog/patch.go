package catalog

// Patch is a partial update. Only fields that are Set overwrite the stored game.
type Patch struct {
	Name            Optional[string] `json:"name,omitzero" validate:"omitempty,notblank,max=255"`
	Description     Optional[string] `json:"description,omitzero" validate:"omitempty,notblank,max=2000"`
	MinPlayers      Optional[int]    `json:"minPlayers,omitzero" validate:"omitempty,gte=1"`
	MaxPlayers      Optional[int]    `json:"maxPlayers,omitzero" validate:"omitempty,gte=1"`
	PlayTimeMinutes Optional[int]    `json:"playTimeMinutes,omitzero" validate:"omitempty,gte=1"`
}

// ApplyTo returns g with every present field of p merged over it.
func (p Patch) ApplyTo(g BoardGame) BoardGame {
	g = g.clone()
	if v, ok := p.Name.Get(); ok {
		g.Name = v
	}
	if v, ok := p.Description.Get(); ok {
		g.Description = v
	}
	if v, ok := p.MinPlayers.Get(); ok {
		g.MinPlayers = intPtr(v)
	}
	if v, ok := p.MaxPlayers.Get(); ok {
		g.MaxPlayers = intPtr(v)
	}
	if v, ok := p.PlayTimeMinutes.Get(); ok {
		g.PlayTimeMinutes = intPtr(v)
	}
	return g
}
