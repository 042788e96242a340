package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/labstock/internal/domain"
	"github.com/jhoicas/labstock/internal/domain/entity"
	"github.com/jhoicas/labstock/internal/domain/inventory"
	"github.com/jhoicas/labstock/internal/domain/repository"
)

// RegisterMovementUseCase es el único punto de mutación del ledger: valida el movimiento, bloquea los
// saldos afectados y confirma en una sola transacción el registro en el log y los cambios de saldo.
type RegisterMovementUseCase struct {
	txRunner  TxRunner
	resolver  CatalogResolver
	publisher MovementPublisher
	recorder  Recorder
	clock     Clock
	log       zerolog.Logger
}

// Option configura colaboradores opcionales del caso de uso.
type Option func(*RegisterMovementUseCase)

// WithResolver valida lote y ubicaciones contra el catálogo antes de abrir la transacción.
func WithResolver(r CatalogResolver) Option { return func(uc *RegisterMovementUseCase) { uc.resolver = r } }

// WithPublisher publica cada movimiento confirmado.
func WithPublisher(p MovementPublisher) Option {
	return func(uc *RegisterMovementUseCase) { uc.publisher = p }
}

// WithRecorder registra métricas.
func WithRecorder(r Recorder) Option { return func(uc *RegisterMovementUseCase) { uc.recorder = r } }

// WithClock reemplaza el reloj (tests).
func WithClock(c Clock) Option { return func(uc *RegisterMovementUseCase) { uc.clock = c } }

// WithLogger asigna el logger estructurado.
func WithLogger(l zerolog.Logger) Option { return func(uc *RegisterMovementUseCase) { uc.log = l } }

// NewRegisterMovementUseCase construye el caso de uso.
func NewRegisterMovementUseCase(txRunner TxRunner, opts ...Option) *RegisterMovementUseCase {
	uc := &RegisterMovementUseCase{
		txRunner:  txRunner,
		publisher: nopPublisher{},
		recorder:  nopRecorder{},
		clock:     SystemClock{},
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// MovementInput solicitud de movimiento.
// CreatedAt solo se acepta con Backfill=true (migración o carga histórica de confianza).
type MovementInput struct {
	BatchID        string
	Type           entity.MovementType
	Quantity       decimal.Decimal
	FromLocationID string
	ToLocationID   string
	UserID         string
	Observation    string
	CreatedAt      *time.Time
	Backfill       bool
}

// RegisterMovement valida, aplica y confirma el movimiento. Devuelve el movimiento confirmado.
// Errores: *domain.ValidationError, *domain.InsufficientBalanceError, *domain.TransactionError,
// o domain.ErrNotFound si hay resolver y el lote/ubicación no existe.
func (uc *RegisterMovementUseCase) RegisterMovement(ctx context.Context, input MovementInput) (*entity.Movement, error) {
	if err := ValidateMovement(input); err != nil {
		uc.reject(input.Type, err)
		return nil, err
	}
	if uc.resolver != nil {
		if err := uc.resolver.ResolveMovement(ctx, input.BatchID, locationsOf(input)...); err != nil {
			uc.reject(input.Type, err)
			return nil, err
		}
	}

	start := time.Now()
	now := uc.clock.Now()
	mov := newMovement(input, now)

	err := uc.txRunner.Run(ctx, func(movRepo repository.MovementRepository, balanceRepo repository.BalanceRepository) error {
		return uc.apply(ctx, movRepo, balanceRepo, mov, now)
	})
	if err != nil {
		err = domain.NewTransactionError("register movement", err)
		uc.reject(input.Type, err)
		return nil, err
	}
	uc.committed(ctx, mov, time.Since(start))
	return mov, nil
}

// RegisterInTx aplica un movimiento usando los repositorios de una transacción del caller
// (por ejemplo la promoción de registros V1). No confirma ni publica: eso queda a cargo del caller.
func (uc *RegisterMovementUseCase) RegisterInTx(
	ctx context.Context,
	movRepo repository.MovementRepository,
	balanceRepo repository.BalanceRepository,
	input MovementInput,
) (*entity.Movement, error) {
	if err := ValidateMovement(input); err != nil {
		return nil, err
	}
	now := uc.clock.Now()
	mov := newMovement(input, now)
	if err := uc.apply(ctx, movRepo, balanceRepo, mov, now); err != nil {
		return nil, err
	}
	return mov, nil
}

// AdjustTargetInput ajuste a cantidad objetivo: la UI envía el total deseado, no el delta.
type AdjustTargetInput struct {
	BatchID     string
	LocationID  string
	Target      decimal.Decimal
	UserID      string
	Observation string
}

// AdjustToTarget calcula el delta contra el saldo actual dentro de la misma transacción y registra un
// AJUSTE de ganancia o pérdida. Si el saldo ya es el objetivo no escribe nada y devuelve nil, nil.
func (uc *RegisterMovementUseCase) AdjustToTarget(ctx context.Context, input AdjustTargetInput) (*entity.Movement, error) {
	switch {
	case input.BatchID == "":
		return nil, domain.NewValidationError("batch_id", "requerido")
	case input.LocationID == "":
		return nil, domain.NewValidationError("location_id", "requerido")
	case input.Target.IsNegative():
		return nil, domain.NewValidationError("target", "no puede ser negativo")
	case !entity.FitsStorage(input.Target):
		return nil, domain.NewValidationError("target", "máximo 4 decimales y 14 dígitos enteros")
	}
	if uc.resolver != nil {
		if err := uc.resolver.ResolveMovement(ctx, input.BatchID, input.LocationID); err != nil {
			uc.reject(entity.MovementAjuste, err)
			return nil, err
		}
	}

	start := time.Now()
	now := uc.clock.Now()
	var mov *entity.Movement
	err := uc.txRunner.Run(ctx, func(movRepo repository.MovementRepository, balanceRepo repository.BalanceRepository) error {
		current, err := balanceRepo.GetForUpdate(ctx, input.BatchID, input.LocationID)
		if err != nil {
			return err
		}
		have := decimal.Zero
		if current != nil {
			have = current.Quantity
		}
		diff := input.Target.Sub(have)
		if diff.IsZero() {
			return nil
		}
		in := MovementInput{
			BatchID:     input.BatchID,
			Type:        entity.MovementAjuste,
			Quantity:    diff.Abs(),
			UserID:      input.UserID,
			Observation: input.Observation,
		}
		if diff.IsPositive() {
			in.ToLocationID = input.LocationID
		} else {
			in.FromLocationID = input.LocationID
		}
		mov = newMovement(in, now)
		return uc.apply(ctx, movRepo, balanceRepo, mov, now)
	})
	if err != nil {
		err = domain.NewTransactionError("adjust to target", err)
		uc.reject(entity.MovementAjuste, err)
		return nil, err
	}
	if mov == nil {
		return nil, nil
	}
	uc.committed(ctx, mov, time.Since(start))
	return mov, nil
}

// ValidateMovement aplica las precondiciones de la tabla de tipos. No toca el almacén.
func ValidateMovement(in MovementInput) error {
	if in.BatchID == "" {
		return domain.NewValidationError("batch_id", "requerido")
	}
	if !in.Type.Valid() {
		return domain.NewValidationError("type", "tipo de movimiento desconocido: "+string(in.Type))
	}
	if !in.Quantity.IsPositive() {
		return domain.NewValidationError("quantity", "debe ser estrictamente positiva")
	}
	if !entity.FitsStorage(in.Quantity) {
		return domain.NewValidationError("quantity", "máximo 4 decimales y 14 dígitos enteros")
	}
	if in.CreatedAt != nil && !in.Backfill {
		return domain.NewValidationError("created_at", "solo se puede fijar en cargas históricas")
	}
	from, to := in.FromLocationID != "", in.ToLocationID != ""
	switch in.Type {
	case entity.MovementEntrada:
		if !to {
			return domain.NewValidationError("to_location_id", "requerido para ENTRADA")
		}
		if from {
			return domain.NewValidationError("from_location_id", "no aplica a ENTRADA")
		}
	case entity.MovementSaida:
		if !from {
			return domain.NewValidationError("from_location_id", "requerido para SAIDA")
		}
		if to {
			return domain.NewValidationError("to_location_id", "no aplica a SAIDA")
		}
	case entity.MovementTransferencia:
		if !from || !to {
			return domain.NewValidationError("location", "TRANSFERENCIA requiere origen y destino")
		}
		if in.FromLocationID == in.ToLocationID {
			return domain.NewValidationError("location", "origen y destino deben ser distintos")
		}
	case entity.MovementAjuste:
		if from == to {
			return domain.NewValidationError("location", "AJUSTE requiere exactamente una ubicación (to = ganancia, from = pérdida)")
		}
	}
	return nil
}

// apply bloquea los saldos tocados en orden determinista, aplica los efectos y agrega el movimiento.
// Cualquier error aborta la transacción del caller.
func (uc *RegisterMovementUseCase) apply(
	ctx context.Context,
	movRepo repository.MovementRepository,
	balanceRepo repository.BalanceRepository,
	mov *entity.Movement,
	now time.Time,
) error {
	effects := inventory.Effects(mov)
	keys := make([]entity.BalanceKey, 0, len(effects))
	for _, e := range effects {
		keys = append(keys, e.Key)
	}
	locked := make(map[string]*entity.Balance, len(keys))
	for _, k := range inventory.LockOrder(keys) {
		b, err := balanceRepo.GetForUpdate(ctx, k.BatchID, k.LocationID)
		if err != nil {
			return err
		}
		locked[k.ID()] = b
	}

	for _, e := range effects {
		var err error
		if e.Delta.IsPositive() {
			err = incrementBalance(ctx, balanceRepo, locked, e.Key, e.Delta, now)
		} else {
			err = decrementBalance(ctx, balanceRepo, locked, e.Key, e.Delta.Neg(), now)
		}
		if err != nil {
			return err
		}
	}
	return movRepo.Append(ctx, mov)
}

// incrementBalance: si no hay fila la crea con qty; si la hay suma qty.
func incrementBalance(
	ctx context.Context,
	balanceRepo repository.BalanceRepository,
	locked map[string]*entity.Balance,
	key entity.BalanceKey,
	qty decimal.Decimal,
	now time.Time,
) error {
	existing := locked[key.ID()]
	next, created := inventory.ApplyIncrement(existing, key, qty, now)
	if created {
		if err := balanceRepo.Insert(ctx, &next); err != nil {
			return err
		}
	} else if err := balanceRepo.Update(ctx, &next); err != nil {
		return err
	}
	locked[key.ID()] = &next
	return nil
}

// decrementBalance: falla si no hay fila o si el saldo quedaría negativo; la fila queda intacta.
func decrementBalance(
	ctx context.Context,
	balanceRepo repository.BalanceRepository,
	locked map[string]*entity.Balance,
	key entity.BalanceKey,
	qty decimal.Decimal,
	now time.Time,
) error {
	existing := locked[key.ID()]
	next, ok := inventory.ApplyDecrement(existing, qty, now)
	if !ok {
		ie := &domain.InsufficientBalanceError{
			BatchID:    key.BatchID,
			LocationID: key.LocationID,
			Missing:    existing == nil,
			Requested:  qty,
		}
		if existing != nil {
			ie.Current = existing.Quantity
		}
		return ie
	}
	if err := balanceRepo.Update(ctx, &next); err != nil {
		return err
	}
	locked[key.ID()] = &next
	return nil
}

func newMovement(in MovementInput, now time.Time) *entity.Movement {
	createdAt := now
	if in.Backfill && in.CreatedAt != nil {
		createdAt = in.CreatedAt.UTC()
	}
	return &entity.Movement{
		ID:             uuid.New().String(),
		BatchID:        in.BatchID,
		Type:           in.Type,
		Quantity:       in.Quantity,
		FromLocationID: in.FromLocationID,
		ToLocationID:   in.ToLocationID,
		UserID:         in.UserID,
		Observation:    in.Observation,
		CreatedAt:      createdAt,
	}
}

func locationsOf(in MovementInput) []string {
	var locs []string
	if in.FromLocationID != "" {
		locs = append(locs, in.FromLocationID)
	}
	if in.ToLocationID != "" {
		locs = append(locs, in.ToLocationID)
	}
	return locs
}

func (uc *RegisterMovementUseCase) committed(ctx context.Context, mov *entity.Movement, elapsed time.Duration) {
	uc.recorder.MovementCommitted(mov.Type, elapsed)
	uc.log.Info().
		Str("movement_id", mov.ID).
		Str("batch_id", mov.BatchID).
		Str("type", string(mov.Type)).
		Str("quantity", mov.Quantity.String()).
		Str("from", mov.FromLocationID).
		Str("to", mov.ToLocationID).
		Msg("movimiento registrado")

	// El movimiento ya está confirmado: un fallo al publicar no lo revierte.
	if err := uc.publisher.Publish(ctx, mov); err != nil {
		uc.recorder.PublishFailed()
		uc.log.Error().Err(err).Str("movement_id", mov.ID).Msg("publicar movimiento")
	}
}

// unknownTypeLabel etiqueta de métricas para tipos fuera de los cuatro conocidos.
const unknownTypeLabel entity.MovementType = "UNKNOWN"

func (uc *RegisterMovementUseCase) reject(t entity.MovementType, err error) {
	reason := "transaction"
	var ve *domain.ValidationError
	var ie *domain.InsufficientBalanceError
	switch {
	case errors.As(err, &ve):
		reason = "validation"
	case errors.As(err, &ie):
		reason = "insufficient_balance"
	case errors.Is(err, domain.ErrNotFound):
		reason = "not_found"
	}
	label := t
	if !t.Valid() {
		// El tipo viene del cliente: no puede abrir series nuevas.
		label = unknownTypeLabel
	}
	uc.recorder.MovementRejected(label, reason)
	ev := uc.log.Warn()
	if reason == "transaction" {
		ev = uc.log.Error()
	}
	ev.Err(err).Str("type", string(t)).Str("reason", reason).Msg("movimiento rechazado")
}
