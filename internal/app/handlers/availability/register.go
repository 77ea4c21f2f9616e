package availability

import (
	"rentgate/internal/app/commands"
	"rentgate/internal/app/dto"
	"rentgate/internal/app/queries"
)

func (h *GetCalendarHandler) Register(bus *queries.InMemoryBus) {
	queries.RegisterHandler[GetCalendarQuery, dto.Calendar](bus, getCalendarKey, h)
}

func (h *UpdateOverridesHandler) Register(bus *commands.InMemoryBus) {
	commands.RegisterHandler[UpdateOverridesCommand, *dto.OverridesResult](bus, updateOverridesKey, h)
}
