package contractors

// Columns shared by search and get. Average ratings are 0 when a contractor has
// no ratings of that kind, so both statements answer the same way.
const contractorColumns = `
        users.first_name                            AS first_name,
        users.last_name                             AS last_name,
        CASE
            WHEN contractors.display_email THEN users.email
            ELSE NULL
        END                                         AS email,
        CASE
            WHEN contractors.display_phone THEN users.phone
            ELSE NULL
        END                                         AS phone,
        users.city                                  AS city,

        contractors.id                              AS contractor_id,
        contractors.company_name                    AS company_name,
        contractors.website                         AS website,
        contractors.years_in_industry               AS years_in_industry,
        contractors.about_me                        AS about_me,
        contractors.verified_contractor             AS verified_contractor,
        contractors.slug                            AS slug,

        contractors.profile_picture_s3              AS profile_picture_s3,
        contractors.portfolio_picture_s3            AS portfolio_picture_s3,

        contractors.minimum_service_charge_cents    AS minimum_service_charge_cents,
        contractors.hourly_rate_cents               AS hourly_rate_cents,

        contractors.union_flag                      AS union_flag,
        contractors.workers_comp_flag               AS workers_comp_flag,
        contractors.licensing_flag                  AS licensing_flag,

        CASE
            WHEN count(contractor_ratings.value_rating) = 0 THEN 0
            ELSE avg(contractor_ratings.value_rating)
        END                                         AS value_rating,
        count(contractor_ratings.value_rating)      AS value_rating_count,

        CASE
            WHEN count(contractor_ratings.on_budget_rating) = 0 THEN 0
            ELSE avg(contractor_ratings.on_budget_rating)
        END                                         AS on_budget_rating,
        count(contractor_ratings.on_budget_rating)  AS on_budget_rating_count,

        CASE
            WHEN count(contractor_ratings.on_time_rating) = 0 THEN 0
            ELSE avg(contractor_ratings.on_time_rating)
        END                                         AS on_time_rating,
        count(contractor_ratings.on_time_rating)    AS on_time_rating_count,

        array_remove(array_agg(DISTINCT trades.name), NULL) AS trades`

const contractorJoins = `
    FROM
        contractors

    LEFT JOIN
        users
    ON
        users.id = contractors.user_id

    LEFT JOIN
        contractor_ratings
    ON
        contractor_ratings.contractor_id = contractors.id

    LEFT JOIN
        contractor_unit_prices
    ON
        contractor_unit_prices.contractor_id = contractors.id

    LEFT JOIN
        subtrades
    ON
        subtrades.id = contractor_unit_prices.subtrade_id

    LEFT JOIN
        trades
    ON
        trades.id = subtrades.trade_id`

// Distances are in miles, service_radius is stored in miles.
const searchSQL = `
    SELECT` + contractorColumns + `,

        ST_DistanceSphere(
            contractors.latlon,
            ST_SetSRID(ST_MakePoint(:lng, :lat), 4326)
        ) / 1609                                    AS distance
` + contractorJoins + `

    WHERE
        contractors.soft_delete IS false AND
        ST_DistanceSphere(
            contractors.latlon,
            ST_SetSRID(ST_MakePoint(:lng, :lat), 4326)
        ) <= contractors.service_radius * 1609

    GROUP BY
        users.id,
        contractors.id

    ORDER BY
        distance ASC,
        contractors.id ASC
    ;
`

const getByIDSQL = `
    SELECT` + contractorColumns + `
` + contractorJoins + `

    WHERE
        contractors.id = :id AND
        contractors.soft_delete IS false

    GROUP BY
        users.id,
        contractors.id
    ;
`

const updateSQL = `
    UPDATE contractors SET
        -- Company information
        company_name = :company_name,
        website = :website,
        service_radius = :service_radius,

        -- Display settings
        display_email = :display_email,
        display_phone = :display_phone,

        -- Qualifications
        years_in_industry = :years_in_industry,
        union_flag = :union_flag,
        workers_comp_flag = :workers_comp_flag,
        licensing_flag = :licensing_flag,
        about_me = :about_me,

        -- Costs
        minimum_service_charge_cents = :minimum_service_charge_cents,
        hourly_rate_cents = :hourly_rate_cents,

        -- Audit trail
        request_id = :request_id,
        modified_by = 0,
        modified_date = current_timestamp

    WHERE
        id = :id AND
        soft_delete IS false
    ;
`

const softDeleteSQL = `
    UPDATE contractors SET
        soft_delete = true,
        modified_date = current_timestamp
    WHERE
        id = :id AND
        soft_delete IS false
    ;
`
