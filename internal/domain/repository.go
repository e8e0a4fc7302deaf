package domain

import "time"

// CatalogRepository описывает требования к хранилищу товаров. Это единственная
// поверхность, через которую читается и меняется доступный остаток.
type CatalogRepository interface {
	// CreateProduct сохраняет новый товар вместе с записью initial_stock
	// одной атомарной единицей. Дубликат SKU — ErrConstraintViolation.
	CreateProduct(product Product, initial LedgerEntry) error
	// Get возвращает снимок товара или ErrProductNotFound.
	Get(id string) (Product, error)
	// List возвращает снимок всех товаров, отсортированных по названию.
	List() ([]Product, error)
	// AdjustStock записывает новый остаток и журнальную запись одной атомарной
	// единицей. Дельту (newQty минус текущий остаток) вычисляет реализация и
	// проставляет в entry перед вставкой. Возвращает обновлённый товар.
	AdjustStock(productID string, newQty int32, entry LedgerEntry) (Product, error)
}

// ReservationRepository хранит срочные удержания остатков.
type ReservationRepository interface {
	// Reserve одной атомарной единицей: проверяет остаток, уменьшает его на
	// res.Qty, вставляет резерв и журнальную запись reserve. При нехватке
	// остатка возвращает ErrInsufficientStock, ничего не меняя.
	// Возвращает остаток товара после списания.
	Reserve(res Reservation, entry LedgerEntry) (int32, error)
	// Release одной атомарной единицей: удаляет самый старый резерв с ключом
	// (productID, owner, qty), увеличивает остаток на qty и вставляет
	// журнальную запись release с RefID снятого резерва. Если подходящего
	// резерва нет — ErrReservationNotFound без изменения остатка.
	// Возвращает снятый резерв и остаток товара после возврата.
	Release(productID, owner string, qty int32, entry LedgerEntry) (Reservation, int32, error)
	// ReleaseByID одной атомарной единицей: удаляет резерв с данным ID,
	// увеличивает остаток на его qty и вставляет журнальную запись release.
	// ProductID, Delta и RefID записи проставляет реализация по найденному
	// резерву. Если резерва нет — ErrReservationNotFound без изменения остатка.
	ReleaseByID(id string, entry LedgerEntry) (Reservation, int32, error)
	// ListExpired возвращает до limit резервов, истёкших к моменту before.
	ListExpired(before time.Time, limit int) ([]Reservation, error)
}

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create одной атомарной единицей сохраняет заказ с позициями, вставляет
	// журнальные записи sale, удаляет сконвертированные резервы и очищает
	// корзину владельца clearCartOwner.
	Create(order Order, sales []LedgerEntry, reservationIDs []string, clearCartOwner string) error
	// Get возвращает заказ с позициями или ErrOrderNotFound.
	Get(id string) (Order, error)
	// List возвращает заказы владельца (или все при owner == ""),
	// свежие первыми, не больше limit при limit > 0.
	List(owner string, limit int) ([]Order, error)
	// SetStatus записывает новый статус и момент обновления.
	// Проверка допустимости перехода — обязанность Order Engine.
	SetStatus(id string, status OrderStatus, updatedAt time.Time) error
	// Cancel одной атомарной единицей: для каждой позиции заказа увеличивает
	// остаток товара на её количество, вставляет журнальные записи return и
	// переводит заказ в статус cancelled.
	Cancel(order Order, returns []LedgerEntry, updatedAt time.Time) error
}

// LedgerRepository даёт доступ на чтение к append-only журналу остатков.
// Запись в журнал происходит только внутри атомарных единиц других репозиториев.
type LedgerRepository interface {
	// List возвращает записи журнала, свежие первыми, не больше limit при limit > 0.
	List(limit int) ([]LedgerEntry, error)
	// ListByProduct возвращает записи по товару, свежие первыми.
	ListByProduct(productID string, limit int) ([]LedgerEntry, error)
	// Balance возвращает сумму влияющих на остаток дельт по товару
	// с момента его создания.
	Balance(productID string) (int32, error)
}

// CartRepository хранит позиции корзин, партиционированные по владельцу.
type CartRepository interface {
	// Upsert добавляет позицию; если позиция (owner, productID) уже есть,
	// количества суммируются.
	Upsert(line CartLine) error
	// List возвращает позиции владельца в порядке добавления.
	List(owner string) ([]CartLine, error)
	// Remove удаляет позицию или возвращает ErrCartLineNotFound.
	Remove(owner, productID string) error
	// Clear удаляет все позиции владельца.
	Clear(owner string) error
}
